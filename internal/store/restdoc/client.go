// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package restdoc implements store.Store against the hosted document
// service: plain REST for writes and deletes, server-sent events for
// live collection subscriptions. Each SSE event carries the full
// ordered document list for the collection, so every push is a
// complete replacement snapshot, never a delta.
package restdoc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Onrion/t3-cloneathon/internal/store"
)

// Client limits.
const (
	// defaultTimeout bounds write and delete requests. Subscriptions
	// are long-lived and use a client without a timeout instead.
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps non-streaming response bodies.
	maxResponseSize = 4 * 1024 * 1024 // 4MB

	// maxEventSize caps a single SSE event line. A full message log for
	// one thread has to fit.
	maxEventSize = 8 * 1024 * 1024 // 8MB
)

var (
	// ErrNotConfigured indicates the store API key is not set.
	ErrNotConfigured = errors.New("document store API key not configured")
)

// StoreError is a non-2xx response from the document service.
type StoreError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("document store error (HTTP %d): %s", e.Status, e.Message)
}

// Client talks to the hosted document service. It satisfies store.Store.
//
// The API key is injected by the caller; there is no baked-in
// credential.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client // writes and deletes, bounded timeout
	streamHTTP *http.Client // subscriptions, no timeout
}

// NewClient creates a document store client for the given base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
		streamHTTP: &http.Client{},
	}
}

// WithHTTPClient overrides both HTTP clients (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamHTTP = hc
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// docPayload is the service's wire shape for one document.
type docPayload struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ============================================================================
// WRITES
// ============================================================================

// AddDocument appends a document to the collection and returns the
// server-assigned id.
func (c *Client) AddDocument(ctx context.Context, path store.Path, fields map[string]any) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/"+string(path), bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &StoreError{Status: resp.StatusCode, Message: string(body)}
	}

	var payload docPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("create response missing document id")
	}
	return payload.ID, nil
}

// DeleteDocument removes the document at path. Deleting a document the
// service does not know maps to store.ErrNotFound.
func (c *Client) DeleteDocument(ctx context.Context, path store.Path) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/"+string(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	default:
		return &StoreError{Status: resp.StatusCode, Message: string(body)}
	}
}

// ============================================================================
// SUBSCRIPTIONS
// ============================================================================

// SubscribeCollection opens an SSE stream for the collection. The
// returned subscription's Cancel tears the HTTP stream down; a push
// racing with Cancel is discarded by the subscription itself.
func (c *Client) SubscribeCollection(ctx context.Context, path store.Path, order store.OrderBy) (*store.Subscription, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	streamCtx, cancel := context.WithCancel(ctx)

	q := url.Values{}
	q.Set("orderBy", order.Field)
	if order.Desc {
		q.Set("direction", "desc")
	}

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet,
		c.baseURL+"/v1/"+string(path)+":listen?"+q.Encode(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		cancel()
		return nil, &StoreError{Status: resp.StatusCode, Message: string(body)}
	}

	sub := store.NewSubscription(cancel)
	go c.readStream(streamCtx, resp.Body, sub)
	return sub, nil
}

// readStream consumes SSE events until the stream ends or the
// subscription is cancelled. Each data event replaces the previous
// snapshot wholesale.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, sub *store.Subscription) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	for scanner.Scan() {
		line := scanner.Text()

		// SSE framing: only data lines carry payload; comments
		// (": keepalive") and blank separators are skipped.
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}

		var docs []docPayload
		if err := json.Unmarshal([]byte(data), &docs); err != nil {
			// Skip malformed events, keep the stream alive.
			continue
		}

		snap := store.Snapshot{Docs: make([]store.Document, 0, len(docs))}
		for _, d := range docs {
			snap.Docs = append(snap.Docs, store.Document{ID: d.ID, Fields: d.Fields})
		}
		sub.Publish(snap)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil && !sub.Closed() {
		sub.Fail(fmt.Errorf("subscription stream ended: %w", err))
	}
}

// readBody drains a bounded, non-streaming response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
