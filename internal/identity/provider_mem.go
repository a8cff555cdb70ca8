// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Onrion/t3-cloneathon/internal/model"
)

// MemProvider hands out process-local anonymous identities. It backs
// --offline mode and tests; nothing survives the process.
type MemProvider struct {
	mu      sync.Mutex
	current *model.Identity
}

// NewMemProvider creates an empty in-memory provider.
func NewMemProvider() *MemProvider {
	return &MemProvider{}
}

// ResolveSession returns the identity created earlier in this process,
// or (nil, nil) on first launch.
func (p *MemProvider) ResolveSession(ctx context.Context) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// CreateAnonymousIdentity mints and remembers a new anonymous identity.
func (p *MemProvider) CreateAnonymousIdentity(ctx context.Context) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &model.Identity{
		ID:        "anon_" + uuid.NewString(),
		Anonymous: true,
	}
	return p.current, nil
}
