// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "sync"

// subscriptionBuffer bounds how many undelivered snapshots a subscription
// holds. Snapshots are full replacements, so when the buffer is full the
// oldest pending one is dropped in favor of the newest.
const subscriptionBuffer = 16

// Subscription is a live feed of snapshots for one collection.
//
// Every subscribe has a paired, guaranteed teardown: callers must Cancel
// when done (switching threads, shutting down) or the store keeps pushing.
// After Cancel returns, no further snapshot or error is delivered; a push
// that raced with Cancel is discarded, never applied late.
type Subscription struct {
	mu       sync.Mutex
	closed   bool
	updates  chan Snapshot
	errs     chan error
	onCancel func()
}

// NewSubscription creates a subscription handle. onCancel runs exactly
// once, when the consumer cancels; implementations use it to detach the
// feed. Only store implementations construct subscriptions.
func NewSubscription(onCancel func()) *Subscription {
	return &Subscription{
		updates:  make(chan Snapshot, subscriptionBuffer),
		errs:     make(chan error, 1),
		onCancel: onCancel,
	}
}

// Updates returns the snapshot channel. It is closed by Cancel.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Err returns the error channel. A subscription that fails (transport
// drop, server error) reports once here; there is no automatic
// reconnection. The failure is logged upstream and the feed goes quiet.
func (s *Subscription) Err() <-chan error {
	return s.errs
}

// Publish delivers a snapshot to the consumer. Implementations call this
// from their feed goroutine; publishes after Cancel are discarded.
func (s *Subscription) Publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.updates <- snap:
			return
		default:
			// Buffer full: drop the stalest pending snapshot. The
			// consumer only ever needs the latest full list.
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Fail reports a subscription failure. At most one error is retained.
func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}

// Cancel tears the subscription down. Idempotent and safe to call
// concurrently with Publish.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.updates)
	onCancel := s.onCancel
	s.onCancel = nil
	s.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
}

// Closed reports whether Cancel has been called.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
