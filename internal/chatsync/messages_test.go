// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/store"
)

func messagesFor(thread string, n int) func(Event) bool {
	return func(ev Event) bool {
		mu, ok := ev.(MessagesUpdated)
		return ok && mu.ThreadID == thread && len(mu.Messages) == n
	}
}

func addMessage(t *testing.T, ms *store.MemStore, thread string, msg model.Message) {
	t.Helper()
	path := store.MessagesPath(testApp, testIdentity().ID, thread)
	_, err := ms.AddDocument(context.Background(), path, msg.Fields())
	require.NoError(t, err)
}

func TestMessageSync_WatchDeliversOrderedLog(t *testing.T) {
	mem := store.NewMemStore()
	base := time.Now()
	addMessage(t, mem, "th1", model.Message{Text: "hi", Role: model.RoleUser, Timestamp: base})
	addMessage(t, mem, "th1", model.Message{Text: "hello", Role: model.RoleModel, Timestamp: base.Add(time.Second)})

	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()

	require.NoError(t, sync.Watch(context.Background(), "th1"))

	ev := rec.waitFor(t, messagesFor("th1", 2)).(MessagesUpdated)
	assert.Equal(t, "hi", ev.Messages[0].Text, "oldest first")
	assert.Equal(t, model.RoleUser, ev.Messages[0].Role)
	assert.Equal(t, "hello", ev.Messages[1].Text)
	assert.Equal(t, model.RoleModel, ev.Messages[1].Role)
	assert.Equal(t, "th1", sync.ThreadID())
}

func TestMessageSync_WriteThenObserve(t *testing.T) {
	mem := store.NewMemStore()
	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()
	require.NoError(t, sync.Watch(context.Background(), "th1"))
	rec.waitFor(t, messagesFor("th1", 0))

	sent := model.NewMessage(model.RoleUser, "round trip")
	addMessage(t, mem, "th1", sent)

	ev := rec.waitFor(t, messagesFor("th1", 1)).(MessagesUpdated)
	got := ev.Messages[0]
	assert.Equal(t, sent.Text, got.Text)
	assert.Equal(t, sent.Role, got.Role)
	assert.WithinDuration(t, sent.Timestamp, got.Timestamp, time.Millisecond)
}

func TestMessageSync_WatchOutlivesCallerContext(t *testing.T) {
	mem := store.NewMemStore()
	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()

	// The UI bounds Watch with a short-lived context and cancels it as
	// soon as the call returns. The subscription must not die with it.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	require.NoError(t, sync.Watch(ctx, "th1"))
	cancel()
	rec.waitFor(t, messagesFor("th1", 0))

	addMessage(t, mem, "th1", model.NewMessage(model.RoleUser, "after cancel"))

	ev := rec.waitFor(t, messagesFor("th1", 1)).(MessagesUpdated)
	assert.Equal(t, "after cancel", ev.Messages[0].Text)
	assert.Equal(t, "th1", sync.ThreadID())
}

func TestMessageSync_SwitchDiscardsStalePushes(t *testing.T) {
	mem := store.NewMemStore()
	base := time.Now()
	addMessage(t, mem, "thA", model.Message{Text: "from A", Role: model.RoleUser, Timestamp: base})

	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()

	ctx := context.Background()
	require.NoError(t, sync.Watch(ctx, "thA"))
	rec.waitFor(t, messagesFor("thA", 1))

	require.NoError(t, sync.Watch(ctx, "thB"))
	rec.waitFor(t, messagesFor("thB", 0))

	// A late write to the old thread must never land in the new cache.
	addMessage(t, mem, "thA", model.Message{Text: "late", Role: model.RoleModel, Timestamp: base.Add(time.Second)})
	addMessage(t, mem, "thB", model.Message{Text: "from B", Role: model.RoleUser, Timestamp: base.Add(2 * time.Second)})

	ev := rec.waitFor(t, messagesFor("thB", 1)).(MessagesUpdated)
	assert.Equal(t, "from B", ev.Messages[0].Text)

	msgs := sync.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from B", msgs[0].Text)
	assert.Equal(t, "thB", sync.ThreadID())
}

func TestMessageSync_EmptyIDDetaches(t *testing.T) {
	mem := store.NewMemStore()
	addMessage(t, mem, "th1", model.NewMessage(model.RoleUser, "hi"))

	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()

	ctx := context.Background()
	require.NoError(t, sync.Watch(ctx, "th1"))
	rec.waitFor(t, messagesFor("th1", 1))

	require.NoError(t, sync.Watch(ctx, ""))
	rec.waitFor(t, messagesFor("", 0))
	assert.Empty(t, sync.ThreadID())
	assert.Empty(t, sync.Messages())
}

func TestMessageSync_RewatchSameThreadIsNoop(t *testing.T) {
	mem := store.NewMemStore()
	rec := newEventRecorder()
	sync := NewMessageSync(mem, testApp, testIdentity(), rec.notify, nil)
	defer sync.Stop()

	ctx := context.Background()
	require.NoError(t, sync.Watch(ctx, "th1"))
	rec.waitFor(t, messagesFor("th1", 0))
	require.NoError(t, sync.Watch(ctx, "th1"))

	// Still attached: a new write flows through.
	addMessage(t, mem, "th1", model.NewMessage(model.RoleUser, "still here"))
	rec.waitFor(t, messagesFor("th1", 1))
}
