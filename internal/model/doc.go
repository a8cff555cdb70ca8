// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the client:
// identities, chat threads, and messages.
//
// # Key Types
//
//   - Identity: the principal (usually anonymous) that owns all stored data
//   - Thread: a named conversation owned by one identity
//   - Message: a single turn in a thread, authored by the user or the model
//   - Role: message role enumeration (user, model)
//
// These are plain value types. The canonical copies live in the remote
// document store; everything held in memory is an eventually-consistent
// cache owned by the sync components in internal/chatsync.
package model
