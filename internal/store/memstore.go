// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store with real push semantics: every write
// broadcasts a fresh ordered snapshot to all subscriptions on the
// affected collection.
//
// It backs --offline mode and every test in the repo. Nothing is ever
// written to disk; state lives only for the lifetime of the process.
type MemStore struct {
	mu          sync.Mutex
	collections map[Path][]Document
	subs        map[Path][]*memSub
}

type memSub struct {
	sub   *Subscription
	order OrderBy
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[Path][]Document),
		subs:        make(map[Path][]*memSub),
	}
}

// SubscribeCollection opens a subscription and immediately pushes the
// current contents of the collection (which may be empty).
func (m *MemStore) SubscribeCollection(ctx context.Context, path Path, order OrderBy) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ms := &memSub{order: order}
	ms.sub = NewSubscription(func() {
		m.removeSub(path, ms)
	})
	m.subs[path] = append(m.subs[path], ms)

	// Initial push so the consumer starts from current state.
	ms.sub.Publish(Snapshot{Docs: ordered(m.collections[path], order)})

	// Tie the subscription lifetime to ctx, matching the remote client.
	go func() {
		<-ctx.Done()
		ms.sub.Cancel()
	}()

	return ms.sub, nil
}

// AddDocument stores a new document under a generated id and notifies
// subscribers of the collection.
func (m *MemStore) AddDocument(ctx context.Context, path Path, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	doc := Document{ID: uuid.NewString(), Fields: copied}

	m.mu.Lock()
	m.collections[path] = append(m.collections[path], doc)
	m.broadcast(path)
	m.mu.Unlock()

	return doc.ID, nil
}

// DeleteDocument removes the document at path. Deleting a thread does not
// touch its message subcollection (see package doc).
func (m *MemStore) DeleteDocument(ctx context.Context, path Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parent, id := path.Split()

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[parent]
	for i, d := range docs {
		if d.ID == id {
			m.collections[parent] = append(docs[:i:i], docs[i+1:]...)
			m.broadcast(parent)
			return nil
		}
	}
	return ErrNotFound
}

// broadcast pushes the collection's current ordered state to every
// subscriber. Caller holds m.mu.
func (m *MemStore) broadcast(path Path) {
	docs := m.collections[path]
	for _, ms := range m.subs[path] {
		ms.sub.Publish(Snapshot{Docs: ordered(docs, ms.order)})
	}
}

func (m *MemStore) removeSub(path Path, target *memSub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[path]
	for i, ms := range subs {
		if ms == target {
			m.subs[path] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// ordered returns a sorted copy of docs per the requested ordering.
// Unknown or missing fields sort as the zero time.
func ordered(docs []Document, order OrderBy) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	if order.Field == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Time(order.Field), out[j].Time(order.Field)
		if !ti.Equal(tj) {
			if order.Desc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		// Tie-break on string value, then id, for a stable total order.
		si, sj := out[i].String(order.Field), out[j].String(order.Field)
		if si != sj {
			if order.Desc {
				return si > sj
			}
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
