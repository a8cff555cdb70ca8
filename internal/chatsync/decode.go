// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatsync

import (
	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/store"
)

// threadFromDoc decodes a thread document. Field names match what
// model.Thread.Fields writes.
func threadFromDoc(d store.Document) model.Thread {
	return model.Thread{
		ID:        d.ID,
		Title:     d.String("title"),
		CreatedAt: d.Time("created_at"),
	}
}

// messageFromDoc decodes a message document.
func messageFromDoc(d store.Document) model.Message {
	return model.Message{
		ID:        d.ID,
		Text:      d.String("text"),
		Role:      model.Role(d.String("role")),
		Timestamp: d.Time("timestamp"),
	}
}

func threadsFromSnapshot(snap store.Snapshot) []model.Thread {
	threads := make([]model.Thread, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		threads = append(threads, threadFromDoc(d))
	}
	return threads
}

func messagesFromSnapshot(snap store.Snapshot) []model.Message {
	msgs := make([]model.Message, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		msgs = append(msgs, messageFromDoc(d))
	}
	return msgs
}
