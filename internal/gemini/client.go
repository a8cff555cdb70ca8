// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the client for the hosted completion endpoint.
//
// The endpoint is plain request/response over HTTP POST: the full
// conversation goes out as `contents`, the reply comes back in
// `candidates[0].content.parts[0].text`. Each call is a single attempt;
// retry and backoff policy is deliberately out of scope; the send
// pipeline converts failures into visible chat turns instead.
package gemini

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

// Configuration constants for the completion endpoint.
const (
	// DefaultBaseURL is the hosted Gemini API base.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTimeout bounds a completion request.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies to prevent memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// FallbackText substitutes a reply when the response parses but the
	// expected candidate fields are missing or empty.
	FallbackText = "Sorry, I couldn't generate a response."
)

// Error variables for common endpoint failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("completion API key not configured")
)

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion endpoint error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion endpoint error (HTTP %d)", e.Status)
}

// Content is one conversation turn on the wire.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single text fragment within a turn.
type Part struct {
	Text string `json:"text"`
}

// NewContent builds a wire turn from a role and text.
func NewContent(role model.Role, text string) Content {
	return Content{Role: string(role), Parts: []Part{{Text: text}}}
}

// ContentsFromMessages converts an ordered message history (oldest first)
// into the request payload shape.
func ContentsFromMessages(msgs []model.Message) []Content {
	contents := make([]Content, 0, len(msgs))
	for _, m := range msgs {
		contents = append(contents, NewContent(m.Role, m.Text))
	}
	return contents
}

// generateRequest is the request body for generateContent.
type generateRequest struct {
	Contents []Content `json:"contents"`
}

// GenerateResponse is the response body from generateContent.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated reply in a response.
type Candidate struct {
	Content Content `json:"content"`
}

// FirstCandidateText extracts the first candidate's text. ok is false
// when the response is missing candidates, parts, or text; callers
// substitute FallbackText rather than treating that as fatal.
func FirstCandidateText(resp *GenerateResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", false
	}
	return parts[0].Text, true
}

// apiErrorResponse is the endpoint's error body shape.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the completion endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
}

// NewClient creates a completion client. The key is injected by the
// caller (resolved from config or the environment); if empty, requests
// fail with ErrNotConfigured rather than going out unauthenticated.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   DefaultBaseURL,
		modelName: DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the completion model.
func (c *Client) WithModel(name string) *Client {
	if name != "" {
		c.modelName = name
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateContent performs one completion request with the given
// conversation. Exactly one attempt: any transport error, non-2xx
// status, or unparsable body is returned as an error.
func (c *Client) GenerateContent(ctx context.Context, contents []Content) (*GenerateResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.modelName + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &genResp, nil
}

// handleErrorResponse converts a non-2xx body into an APIError.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{Status: statusCode, Message: apiErr.Error.Message}
	}
	return &APIError{Status: statusCode, Message: strings.TrimSpace(string(body))}
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
