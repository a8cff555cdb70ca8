// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store defines the document store consumed by the sync layer.
//
// The store is an external system that holds ordered collections of
// documents, partitioned by path:
//
//	tenant/{appID}/users/{identityID}/chats
//	tenant/{appID}/users/{identityID}/chats/{chatID}/messages
//
// Reads are push-based: SubscribeCollection opens a long-lived
// subscription whose every update carries the full ordered document list
// (full-replace semantics: simple to reason about, and accepted here;
// incremental diffing would only matter for very large histories).
// Writes are document-level AddDocument/DeleteDocument calls.
//
// Deleting a thread document does not delete its message subcollection.
// Orphaned message logs are left to the store operator's retention policy;
// the client never reads them again once the thread is gone.
//
// Two implementations exist: MemStore (in-memory, used by tests and by
// --offline mode) and restdoc.Client (the remote HTTP/SSE store).
package store
