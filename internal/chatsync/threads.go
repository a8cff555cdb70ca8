// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/store"
)

// ErrNotStarted is returned for operations on a sync that has no
// active subscription.
var ErrNotStarted = errors.New("thread sync not started")

// ThreadSync mirrors the identity's thread collection and tracks which
// thread is active.
//
// Invariant maintained here: a resolved identity always ends up with at
// least one thread; an empty push triggers creation of a default one.
// Selection, once made, is never overridden by list reordering.
type ThreadSync struct {
	st       store.Store
	path     store.Path
	notify   Notify
	log      *zap.Logger

	mu             sync.Mutex
	threads        []model.Thread
	selected       string
	sub            *store.Subscription
	defaultPending bool // a default-thread create is already in flight
}

// NewThreadSync creates a sync for the identity's thread collection.
// log may be nil.
func NewThreadSync(st store.Store, appID string, id *model.Identity, notify Notify, log *zap.Logger) *ThreadSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &ThreadSync{
		st:     st,
		path:   store.ChatsPath(appID, id.ID),
		notify: notify,
		log:    log,
	}
}

// Start opens the live subscription, ordered by creation time
// descending (most recent first). It returns once the subscription is
// established; pushes are consumed on a background goroutine.
func (ts *ThreadSync) Start(ctx context.Context) error {
	sub, err := ts.st.SubscribeCollection(ctx, ts.path, store.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return fmt.Errorf("subscribe threads: %w", err)
	}

	ts.mu.Lock()
	ts.sub = sub
	ts.mu.Unlock()

	go ts.consume(ctx, sub)
	return nil
}

// Stop tears down the subscription.
func (ts *ThreadSync) Stop() {
	ts.mu.Lock()
	sub := ts.sub
	ts.sub = nil
	ts.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (ts *ThreadSync) consume(ctx context.Context, sub *store.Subscription) {
	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			ts.apply(ctx, snap)
		case err := <-sub.Err():
			ts.log.Error("thread subscription failed", zap.Error(err))
			ts.notify.send(SyncFailed{Scope: "threads", Err: err})
		}
	}
}

// apply replaces the cache with the pushed list and enforces the
// default-thread and initial-selection policies.
func (ts *ThreadSync) apply(ctx context.Context, snap store.Snapshot) {
	threads := threadsFromSnapshot(snap)

	ts.mu.Lock()
	ts.threads = threads

	needDefault := len(threads) == 0 && !ts.defaultPending
	if needDefault {
		ts.defaultPending = true
	}
	if len(threads) > 0 {
		ts.defaultPending = false
		// Initial selection only. Reordering never steals an existing
		// selection, even if the selected thread changed position.
		if ts.selected == "" {
			ts.selected = threads[0].ID
		} else if !containsThread(threads, ts.selected) {
			// Selected thread vanished remotely. Fall back to the most
			// recent remaining one.
			ts.selected = threads[0].ID
		}
	}
	if len(threads) == 0 {
		ts.selected = ""
	}
	ts.mu.Unlock()

	ts.publish()

	if needDefault {
		if _, err := ts.createThread(ctx, model.DefaultThreadTitle); err != nil {
			ts.mu.Lock()
			ts.defaultPending = false
			ts.mu.Unlock()
			ts.log.Error("default thread creation failed", zap.Error(err))
			ts.notify.send(SyncFailed{Scope: "threads", Err: err})
		}
	}
}

// CreateThread appends a new thread and selects it as active. Each call
// is independent; concurrent creations simply produce multiple threads.
func (ts *ThreadSync) CreateThread(ctx context.Context, title string) (string, error) {
	id, err := ts.createThread(ctx, title)
	if err != nil {
		return "", err
	}

	ts.mu.Lock()
	ts.selected = id
	ts.mu.Unlock()
	ts.publish()
	return id, nil
}

func (ts *ThreadSync) createThread(ctx context.Context, title string) (string, error) {
	th := model.NewThread(title)
	id, err := ts.st.AddDocument(ctx, ts.path, th.Fields())
	if err != nil {
		ts.log.Error("thread create failed", zap.Error(err))
		return "", fmt.Errorf("create thread: %w", err)
	}
	ts.log.Info("thread created", zap.String("thread", id), zap.String("title", th.Title))
	return id, nil
}

// DeleteThread removes the thread. Deleting the active selection
// reselects the next thread in list order (falling back to the previous
// one, or none). Deleting any other thread never changes selection.
//
// Only the thread document is deleted; its message log is left for the
// store's retention policy (see the store package doc).
func (ts *ThreadSync) DeleteThread(ctx context.Context, id string) error {
	if err := ts.st.DeleteDocument(ctx, ts.path.Doc(id)); err != nil {
		ts.log.Error("thread delete failed", zap.String("thread", id), zap.Error(err))
		return fmt.Errorf("delete thread: %w", err)
	}

	ts.mu.Lock()
	if ts.selected == id {
		ts.selected = replacementFor(ts.threads, id)
	}
	// Drop it from the cache immediately; the store push will confirm.
	for i, th := range ts.threads {
		if th.ID == id {
			ts.threads = append(ts.threads[:i:i], ts.threads[i+1:]...)
			break
		}
	}
	ts.mu.Unlock()

	ts.log.Info("thread deleted", zap.String("thread", id))
	ts.publish()
	return nil
}

// Select makes the given thread active. Selecting an unknown id is a
// no-op.
func (ts *ThreadSync) Select(id string) {
	ts.mu.Lock()
	if !containsThread(ts.threads, id) {
		ts.mu.Unlock()
		return
	}
	changed := ts.selected != id
	ts.selected = id
	ts.mu.Unlock()

	if changed {
		ts.publish()
	}
}

// Threads returns a copy of the current thread list, most recent first.
func (ts *ThreadSync) Threads() []model.Thread {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]model.Thread, len(ts.threads))
	copy(out, ts.threads)
	return out
}

// Selected returns the active thread id, or "".
func (ts *ThreadSync) Selected() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.selected
}

// publish snapshots state under the lock and notifies outside it.
func (ts *ThreadSync) publish() {
	ts.mu.Lock()
	threads := make([]model.Thread, len(ts.threads))
	copy(threads, ts.threads)
	selected := ts.selected
	ts.mu.Unlock()

	ts.notify.send(ThreadsUpdated{Threads: threads, Selected: selected})
}

func containsThread(threads []model.Thread, id string) bool {
	for _, th := range threads {
		if th.ID == id {
			return true
		}
	}
	return false
}

// replacementFor picks the deterministic replacement when the selected
// thread is removed: the next thread in list order, else the previous
// one, else none.
func replacementFor(threads []model.Thread, removed string) string {
	for i, th := range threads {
		if th.ID == removed {
			if i+1 < len(threads) {
				return threads[i+1].ID
			}
			if i > 0 {
				return threads[i-1].ID
			}
			return ""
		}
	}
	return ""
}
