// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// Role identifies the author of a message. Immutable after creation.
type Role string

// Message roles. The completion endpoint uses the same two values on the
// wire, so no mapping layer is needed.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Message is one turn in a thread.
//
// Messages belong to exactly one thread and are never moved. Within a
// thread they are ordered strictly by Timestamp ascending.
type Message struct {
	// ID is the opaque unique id assigned by the store.
	ID string `json:"id"`

	// Text is the message content. Never persisted empty.
	Text string `json:"text"`

	// Role is who authored the message: RoleUser or RoleModel.
	Role Role `json:"role"`

	// Timestamp is set at creation and orders the thread's log.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with the given role and text, timestamped now.
func NewMessage(role Role, text string) Message {
	return Message{
		Text:      text,
		Role:      role,
		Timestamp: time.Now(),
	}
}

// Fields returns the message as document fields for a store write.
func (m Message) Fields() map[string]any {
	return map[string]any{
		"text":      m.Text,
		"role":      string(m.Role),
		"timestamp": m.Timestamp,
	}
}
