// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatsync keeps local chat state current with the document store.
//
// Two components, each owning exactly one cache:
//
//   - ThreadSync owns the ordered thread list and the active selection.
//   - MessageSync owns the message log of the selected thread.
//
// Both consume push subscriptions with full-replace semantics: every
// update from the store replaces the cache wholesale. No other component
// writes these caches; the send pipeline's writes become visible only by
// flowing back through the subscription.
//
// Updates for a single subscription arrive in order, but thread-list and
// message-log pushes may interleave arbitrarily, and nothing here assumes
// cross-subscription ordering.
package chatsync
