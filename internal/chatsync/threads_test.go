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

const testApp = "t3chat-test"

func testIdentity() *model.Identity {
	return &model.Identity{ID: "uid-test", Anonymous: true}
}

// eventRecorder collects sync events on a channel for assertions.
type eventRecorder struct {
	ch chan Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan Event, 64)}
}

func (r *eventRecorder) notify(ev Event) {
	r.ch <- ev
}

// waitFor pumps events until match returns true or the timeout hits.
func (r *eventRecorder) waitFor(t *testing.T, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func threadsWith(n int) func(Event) bool {
	return func(ev Event) bool {
		tu, ok := ev.(ThreadsUpdated)
		return ok && len(tu.Threads) == n
	}
}

func TestThreadSync_EmptyListCreatesDefaultThread(t *testing.T) {
	ms := store.NewMemStore()
	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, testIdentity(), rec.notify, nil)
	defer ts.Stop()

	require.NoError(t, ts.Start(context.Background()))

	// The initial empty push triggers default-thread creation, whose
	// write is observed back through the subscription.
	ev := rec.waitFor(t, threadsWith(1)).(ThreadsUpdated)
	assert.Equal(t, model.DefaultThreadTitle, ev.Threads[0].Title)
	assert.Equal(t, ev.Threads[0].ID, ev.Selected, "first thread becomes the selection")
	assert.Equal(t, ev.Selected, ts.Selected())
}

func TestThreadSync_CacheMatchesLatestPush(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	id := testIdentity()
	path := store.ChatsPath(testApp, id.ID)

	// Seed two threads before the sync starts.
	_, err := ms.AddDocument(ctx, path, map[string]any{"title": "older", "created_at": time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = ms.AddDocument(ctx, path, map[string]any{"title": "newer", "created_at": time.Now()})
	require.NoError(t, err)

	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, id, rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))

	rec.waitFor(t, threadsWith(2))
	threads := ts.Threads()
	require.Len(t, threads, 2)
	assert.Equal(t, "newer", threads[0].Title, "list is most-recent-first")
	assert.Equal(t, threads[0].ID, ts.Selected())

	// A third write lands in the cache via the push.
	_, err = ms.AddDocument(ctx, path, map[string]any{"title": "newest", "created_at": time.Now().Add(time.Hour)})
	require.NoError(t, err)

	rec.waitFor(t, threadsWith(3))
	assert.Len(t, ts.Threads(), 3)
}

func TestThreadSync_SelectionSurvivesReorder(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	id := testIdentity()
	path := store.ChatsPath(testApp, id.ID)

	first, err := ms.AddDocument(ctx, path, map[string]any{"title": "first", "created_at": time.Now()})
	require.NoError(t, err)

	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, id, rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))

	rec.waitFor(t, threadsWith(1))
	require.Equal(t, first, ts.Selected())

	// A newer thread moves to the top of the list but must not steal
	// the selection.
	_, err = ms.AddDocument(ctx, path, map[string]any{"title": "second", "created_at": time.Now().Add(time.Minute)})
	require.NoError(t, err)

	rec.waitFor(t, threadsWith(2))
	assert.Equal(t, first, ts.Selected())
	assert.NotEqual(t, first, ts.Threads()[0].ID, "newer thread is on top")
}

func TestThreadSync_CreateThreadSelectsIt(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, testIdentity(), rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))
	rec.waitFor(t, threadsWith(1)) // default thread

	id, err := ts.CreateThread(ctx, "side quest")
	require.NoError(t, err)
	assert.Equal(t, id, ts.Selected())

	rec.waitFor(t, threadsWith(2))
	assert.Equal(t, id, ts.Selected(), "push does not override explicit selection")
}

func TestReplacementFor(t *testing.T) {
	threads := []model.Thread{{ID: "c"}, {ID: "b"}, {ID: "a"}}

	assert.Equal(t, "a", replacementFor(threads, "b"), "next in list order wins")
	assert.Equal(t, "b", replacementFor(threads, "a"), "last falls back to previous")
	assert.Equal(t, "b", replacementFor(threads, "c"), "first falls back to next")
	assert.Equal(t, "", replacementFor([]model.Thread{{ID: "only"}}, "only"), "only thread leaves no selection")
	assert.Equal(t, "", replacementFor(threads, "missing"), "unknown id leaves no selection")
}

func TestThreadSync_DeleteNonSelectedKeepsSelection(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	id := testIdentity()
	path := store.ChatsPath(testApp, id.ID)

	keep, err := ms.AddDocument(ctx, path, map[string]any{"title": "keep", "created_at": time.Now()})
	require.NoError(t, err)
	drop, err := ms.AddDocument(ctx, path, map[string]any{"title": "drop", "created_at": time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, id, rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))
	rec.waitFor(t, threadsWith(2))

	require.Equal(t, keep, ts.Selected())
	require.NoError(t, ts.DeleteThread(ctx, drop))

	rec.waitFor(t, threadsWith(1))
	assert.Equal(t, keep, ts.Selected(), "deleting a non-selected thread never changes selection")
}

func TestThreadSync_DeleteOnlyThreadClearsSelectionThenRecreates(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, testIdentity(), rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))

	first := rec.waitFor(t, threadsWith(1)).(ThreadsUpdated)
	onlyID := first.Threads[0].ID

	require.NoError(t, ts.DeleteThread(ctx, onlyID))

	// Immediately after the delete the selection is gone...
	ev := rec.waitFor(t, func(e Event) bool {
		tu, ok := e.(ThreadsUpdated)
		return ok && len(tu.Threads) == 0
	}).(ThreadsUpdated)
	assert.Empty(t, ev.Selected)

	// ...and the default-state invariant then brings a fresh thread.
	recreated := rec.waitFor(t, threadsWith(1)).(ThreadsUpdated)
	assert.NotEqual(t, onlyID, recreated.Threads[0].ID)
	assert.Equal(t, recreated.Threads[0].ID, recreated.Selected)
}

func TestThreadSync_SelectUnknownIsNoop(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()
	rec := newEventRecorder()
	ts := NewThreadSync(ms, testApp, testIdentity(), rec.notify, nil)
	defer ts.Stop()
	require.NoError(t, ts.Start(ctx))
	ev := rec.waitFor(t, threadsWith(1)).(ThreadsUpdated)

	ts.Select("no-such-thread")
	assert.Equal(t, ev.Selected, ts.Selected())
}
