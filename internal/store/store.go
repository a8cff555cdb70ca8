// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"time"
)

// Common store errors.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store closed")
)

// Document is one stored record: an opaque id plus its fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// String returns the named field as a string, or "" if absent.
func (d Document) String(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

// Time returns the named field as a time.Time. Remote stores deliver
// timestamps as RFC 3339 strings, MemStore keeps them as time.Time;
// both are handled. Returns the zero time if absent or unparseable.
func (d Document) Time(field string) time.Time {
	switch v := d.Fields[field].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

// OrderBy describes the ordering a subscription requests for a collection.
type OrderBy struct {
	Field string
	Desc  bool
}

// Snapshot is one push from a collection subscription: the full ordered
// document list as of that update.
type Snapshot struct {
	Docs []Document
}

// Store is the document store consumed by the sync layer.
//
// All methods may suspend on I/O and must respect ctx. Implementations
// guarantee that updates for a single subscription are delivered in the
// order the store emits them; no ordering holds across subscriptions.
type Store interface {
	// SubscribeCollection opens a live subscription to the collection at
	// path, ordered by order. The subscription stays open until Cancel
	// is called or ctx is done.
	SubscribeCollection(ctx context.Context, path Path, order OrderBy) (*Subscription, error)

	// AddDocument appends a document and returns its store-assigned id.
	AddDocument(ctx context.Context, path Path, fields map[string]any) (string, error)

	// DeleteDocument removes the document at path (a document path,
	// i.e. a collection path plus an id segment).
	DeleteDocument(ctx context.Context, path Path) error
}
