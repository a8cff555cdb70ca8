// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// DefaultThreadTitle is the title given to automatically created threads.
const DefaultThreadTitle = "New Chat"

// Thread is a named conversation owned by exactly one identity.
//
// Ownership is enforced by the storage path partition
// (tenant/{app}/users/{identity}/chats), not by an in-memory reference.
type Thread struct {
	// ID is the opaque unique id within the owning identity's collection.
	ID string `json:"id"`

	// Title is free text shown in the thread list.
	Title string `json:"title"`

	// CreatedAt is set once at creation and never mutated. The thread
	// list is ordered by CreatedAt descending.
	CreatedAt time.Time `json:"created_at"`
}

// NewThread creates a thread with the given title, timestamped now.
// An empty title falls back to DefaultThreadTitle.
func NewThread(title string) Thread {
	if strings.TrimSpace(title) == "" {
		title = DefaultThreadTitle
	}
	return Thread{
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// Fields returns the thread as document fields for a store write.
// The document id is assigned by the store, so ID is not included.
func (t Thread) Fields() map[string]any {
	return map[string]any{
		"title":      t.Title,
		"created_at": t.CreatedAt,
	}
}
