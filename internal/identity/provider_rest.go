// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Onrion/t3-cloneathon/internal/model"
)

// Provider endpoint configuration.
const (
	// defaultTimeout bounds every provider request.
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps provider response bodies.
	maxResponseSize = 1 * 1024 * 1024 // 1MB
)

// Provider error variables.
var (
	// ErrNotConfigured indicates the provider API key is not set.
	ErrNotConfigured = errors.New("identity provider API key not configured")
)

// ProviderError is a non-2xx response from the identity provider.
type ProviderError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error (HTTP %d): %s", e.Status, e.Message)
}

// RESTProvider talks to the hosted identity service over HTTP.
//
// The API key is injected by the caller (resolved from config or the
// environment); there is no empty-by-default credential baked in.
type RESTProvider struct {
	baseURL      string
	apiKey       string
	sessionToken string
	httpClient   *http.Client
}

// NewRESTProvider creates a provider client for the given base URL.
func NewRESTProvider(baseURL, apiKey string) *RESTProvider {
	return &RESTProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithSessionToken attaches a provider-side session token, letting a
// returning user resolve their previous identity.
func (p *RESTProvider) WithSessionToken(token string) *RESTProvider {
	p.sessionToken = strings.TrimSpace(token)
	return p
}

// WithHTTPClient overrides the HTTP client (tests).
func (p *RESTProvider) WithHTTPClient(c *http.Client) *RESTProvider {
	p.httpClient = c
	return p
}

// identityPayload is the provider's wire shape for an identity.
type identityPayload struct {
	LocalID   string `json:"localId"`
	Anonymous bool   `json:"anonymous"`
	Handle    string `json:"displayName,omitempty"`
}

func (p identityPayload) toModel() *model.Identity {
	return &model.Identity{
		ID:        p.LocalID,
		Anonymous: p.Anonymous,
		Handle:    p.Handle,
	}
}

// ResolveSession looks up the session held by the provider. When the
// client carries no session token, or the provider no longer recognises
// it, there is no current identity and (nil, nil) is returned.
func (p *RESTProvider) ResolveSession(ctx context.Context) (*model.Identity, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if p.sessionToken == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/session", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Authorization", "Bearer "+p.sessionToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload identityPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse session response: %w", err)
		}
		return payload.toModel(), nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnauthorized:
		// Expired or unknown session: not an error, just no identity.
		return nil, nil
	default:
		return nil, &ProviderError{Status: resp.StatusCode, Message: string(body)}
	}
}

// CreateAnonymousIdentity mints a new anonymous identity.
func (p *RESTProvider) CreateAnonymousIdentity(ctx context.Context) (*model.Identity, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	reqBody, err := json.Marshal(map[string]any{"returnSecureToken": true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/accounts:signUp", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Status: resp.StatusCode, Message: string(body)}
	}

	var payload identityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse signUp response: %w", err)
	}
	if payload.LocalID == "" {
		return nil, &ProviderError{Status: resp.StatusCode, Message: "signUp response missing localId"}
	}
	payload.Anonymous = true
	return payload.toModel(), nil
}

func (p *RESTProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)
}

// readBody reads a response body with a size limit.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == maxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", maxResponseSize)
	}
	return body, nil
}
