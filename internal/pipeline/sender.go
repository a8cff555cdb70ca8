// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline turns a typed line of text into a pair of persisted
// chat turns: the user's message, then the model's reply (or an error
// surfaced as a reply). All writes go through the document store; the
// UI observes them via its live subscriptions rather than through
// return values.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/gemini"
	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned while a previous send is still in flight.
	ErrBusy = errors.New("a send is already in flight")

	// ErrBlankText is returned for empty or whitespace-only input.
	ErrBlankText = errors.New("message text is blank")

	// ErrNoThread is returned when no thread is active.
	ErrNoThread = errors.New("no active thread")
)

// Completer generates a model reply from the conversation so far.
// *gemini.Client satisfies it.
type Completer interface {
	GenerateContent(ctx context.Context, contents []gemini.Content) (*gemini.GenerateResponse, error)
}

// =============================================================================
// SENDER
// =============================================================================

// Sender is the single-flight send pipeline. One send at a time: a
// second Send while the first is still running is rejected with ErrBusy
// rather than queued.
type Sender struct {
	st       store.Store
	appID    string
	identity *model.Identity
	client   Completer
	log      *zap.Logger

	inFlight atomic.Bool
}

// NewSender creates a send pipeline for the identity. log may be nil.
func NewSender(st store.Store, appID string, id *model.Identity, client Completer, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{
		st:       st,
		appID:    appID,
		identity: id,
		client:   client,
		log:      log,
	}
}

// Sending reports whether a send is currently in flight.
func (s *Sender) Sending() bool {
	return s.inFlight.Load()
}

// Send runs the full pipeline for one user turn: persist the user
// message, generate a completion from the thread history plus that
// message, and persist the reply. A completion failure is not an error
// of Send itself; it is recorded as a visible model turn prefixed with
// "Error: " so the conversation shows what happened.
//
// history is the thread's message log as currently cached, oldest
// first; the new user turn is appended to it for the request.
func (s *Sender) Send(ctx context.Context, threadID, text string, history []model.Message) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankText
	}
	if threadID == "" {
		return ErrNoThread
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	path := store.MessagesPath(s.appID, s.identity.ID, threadID)

	// The user turn is persisted before the completion is attempted, so
	// it survives regardless of how the generation goes.
	userMsg := model.NewMessage(model.RoleUser, text)
	if _, err := s.st.AddDocument(ctx, path, userMsg.Fields()); err != nil {
		s.log.Error("user message write failed",
			zap.String("thread", threadID), zap.Error(err))
		return fmt.Errorf("write user message: %w", err)
	}

	contents := gemini.ContentsFromMessages(append(history, userMsg))

	reply := s.generate(ctx, threadID, contents)

	replyMsg := model.NewMessage(model.RoleModel, reply)
	if _, err := s.st.AddDocument(ctx, path, replyMsg.Fields()); err != nil {
		s.log.Error("model message write failed",
			zap.String("thread", threadID), zap.Error(err))
		return fmt.Errorf("write model message: %w", err)
	}
	return nil
}

// generate makes a single completion attempt and maps every failure
// mode onto the text of the model turn. No retries.
func (s *Sender) generate(ctx context.Context, threadID string, contents []gemini.Content) string {
	resp, err := s.client.GenerateContent(ctx, contents)
	if err != nil {
		s.log.Warn("completion failed",
			zap.String("thread", threadID), zap.Error(err))
		return "Error: " + err.Error()
	}
	text, ok := gemini.FirstCandidateText(resp)
	if !ok {
		s.log.Warn("completion returned no candidates",
			zap.String("thread", threadID))
		return gemini.FallbackText
	}
	return text
}
