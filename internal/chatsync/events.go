// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsync

import (
	"github.com/Onrion/t3-cloneathon/internal/model"
)

// Event is a state-change notification delivered to the presentation
// layer. Events carry copies of the caches, never the caches themselves.
type Event interface{ syncEvent() }

// ThreadsUpdated reports a new thread list and/or selection.
type ThreadsUpdated struct {
	Threads  []model.Thread
	Selected string // thread id, or "" when nothing is selected
}

// MessagesUpdated reports a new message log for a thread.
type MessagesUpdated struct {
	ThreadID string
	Messages []model.Message
}

// SyncFailed reports a subscription or write failure. There is no
// automatic retry; the UI may show stale data until restart.
type SyncFailed struct {
	Scope string // "threads" or "messages"
	Err   error
}

func (ThreadsUpdated) syncEvent()  {}
func (MessagesUpdated) syncEvent() {}
func (SyncFailed) syncEvent()      {}

// Notify is the callback both sync components use to publish events.
// A nil Notify is valid and discards events.
type Notify func(Event)

func (n Notify) send(ev Event) {
	if n != nil {
		n(ev)
	}
}
