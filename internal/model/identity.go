// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Identity is a principal on whose behalf threads and messages are stored.
//
// Identities are created by the identity provider and are immutable from
// the client's point of view: the provider assigns the ID once and the
// client never mutates or destroys it (logout is out of scope).
type Identity struct {
	// ID is the opaque unique id assigned by the identity provider.
	ID string `json:"id"`

	// Anonymous marks identities created without credentials.
	Anonymous bool `json:"anonymous"`

	// Handle is an optional display name. Empty for anonymous identities.
	Handle string `json:"handle,omitempty"`
}
