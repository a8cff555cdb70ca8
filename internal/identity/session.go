// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/Onrion/t3-cloneathon/internal/model"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnresolved means no identity is available yet. The rest of
	// the system must not touch the store while in this state.
	StateUnresolved State = iota

	// StateResolved means an identity is available for the process
	// lifetime. There is no further transition (logout is out of scope).
	StateResolved
)

// Provider is the external identity provider.
type Provider interface {
	// ResolveSession returns the current identity, or (nil, nil) when
	// no session exists yet.
	ResolveSession(ctx context.Context) (*model.Identity, error)

	// CreateAnonymousIdentity mints a fresh anonymous identity.
	CreateAnonymousIdentity(ctx context.Context) (*model.Identity, error)
}

// Session resolves and then holds the client's identity.
type Session struct {
	provider Provider

	mu       sync.Mutex
	state    State
	identity *model.Identity
}

// NewSession creates an unresolved session backed by provider.
func NewSession(provider Provider) *Session {
	return &Session{provider: provider}
}

// Resolve asks the provider for the current session, creating a new
// anonymous identity when none exists. On provider failure the session
// stays Unresolved; callers may retry by calling Resolve again, but the
// session never partially resolves.
func (s *Session) Resolve(ctx context.Context) (*model.Identity, error) {
	s.mu.Lock()
	if s.state == StateResolved {
		id := s.identity
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	id, err := s.provider.ResolveSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if id == nil {
		id, err = s.provider.CreateAnonymousIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("create anonymous identity: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolved {
		s.state = StateResolved
		s.identity = id
	}
	return s.identity, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the resolved identity, or nil while Unresolved.
func (s *Session) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}
