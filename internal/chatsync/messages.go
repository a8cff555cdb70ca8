// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsync

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/store"
)

// MessageSync mirrors the message log of the currently watched thread.
//
// At most one subscription is live at a time. Switching threads tears
// the old subscription down first; a push that raced with the switch is
// dropped by a generation check, so one thread's log can never bleed
// into another's cache.
type MessageSync struct {
	st       store.Store
	appID    string
	identity *model.Identity
	notify   Notify
	log      *zap.Logger

	mu       sync.Mutex
	gen      uint64
	threadID string
	messages []model.Message
	sub      *store.Subscription
	stop     context.CancelFunc
}

// NewMessageSync creates a message sync for the identity. log may be nil.
func NewMessageSync(st store.Store, appID string, id *model.Identity, notify Notify, log *zap.Logger) *MessageSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageSync{
		st:       st,
		appID:    appID,
		identity: id,
		notify:   notify,
		log:      log,
	}
}

// Watch switches the live subscription to the given thread. An empty id
// detaches entirely and clears the cache. Watching the already-watched
// thread is a no-op.
//
// The subscription outlives ctx: callers typically bound the Watch call
// with a short timeout, so the feed runs on its own detached context and
// stays open until the next Watch or Stop tears it down.
func (ms *MessageSync) Watch(ctx context.Context, threadID string) error {
	ms.mu.Lock()
	if ms.threadID == threadID && (ms.sub != nil || threadID == "") {
		ms.mu.Unlock()
		return nil
	}

	// Teardown precedes (and gates) the new subscription.
	ms.gen++
	gen := ms.gen
	old := ms.sub
	oldStop := ms.stop
	ms.sub = nil
	ms.stop = nil
	ms.threadID = threadID
	ms.messages = nil
	ms.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	if oldStop != nil {
		oldStop()
	}

	if threadID == "" {
		ms.publish("", nil)
		return nil
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	path := store.MessagesPath(ms.appID, ms.identity.ID, threadID)
	sub, err := ms.st.SubscribeCollection(subCtx, path, store.OrderBy{Field: "timestamp"})
	if err != nil {
		cancel()
		ms.log.Error("message subscription failed",
			zap.String("thread", threadID), zap.Error(err))
		return fmt.Errorf("subscribe messages: %w", err)
	}

	ms.mu.Lock()
	if gen != ms.gen {
		// Another Watch won the race while we were subscribing.
		ms.mu.Unlock()
		sub.Cancel()
		cancel()
		return nil
	}
	ms.sub = sub
	ms.stop = cancel
	ms.mu.Unlock()

	go ms.consume(sub, gen, threadID)
	return nil
}

// Stop detaches the current subscription, if any.
func (ms *MessageSync) Stop() {
	ms.mu.Lock()
	ms.gen++
	old := ms.sub
	oldStop := ms.stop
	ms.sub = nil
	ms.stop = nil
	ms.threadID = ""
	ms.messages = nil
	ms.mu.Unlock()
	if old != nil {
		old.Cancel()
	}
	if oldStop != nil {
		oldStop()
	}
}

func (ms *MessageSync) consume(sub *store.Subscription, gen uint64, threadID string) {
	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			msgs := messagesFromSnapshot(snap)

			ms.mu.Lock()
			if gen != ms.gen {
				// Stale push for a thread we already left. Discard.
				ms.mu.Unlock()
				return
			}
			ms.messages = msgs
			ms.mu.Unlock()

			ms.publish(threadID, msgs)
		case err := <-sub.Err():
			ms.log.Error("message subscription failed",
				zap.String("thread", threadID), zap.Error(err))
			ms.notify.send(SyncFailed{Scope: "messages", Err: err})
		}
	}
}

// ThreadID returns the currently watched thread id, or "".
func (ms *MessageSync) ThreadID() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.threadID
}

// Messages returns a copy of the current message log, oldest first.
func (ms *MessageSync) Messages() []model.Message {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]model.Message, len(ms.messages))
	copy(out, ms.messages)
	return out
}

func (ms *MessageSync) publish(threadID string, msgs []model.Message) {
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	ms.notify.send(MessagesUpdated{ThreadID: threadID, Messages: out})
}
