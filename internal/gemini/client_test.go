// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Onrion/t3-cloneathon/internal/model"
)

func TestGenerateContent_Success(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello"}],"role":"model"}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	contents := ContentsFromMessages([]model.Message{
		model.NewMessage(model.RoleUser, "hi"),
	})

	resp, err := client.GenerateContent(context.Background(), contents)
	require.NoError(t, err)

	text, ok := FirstCandidateText(resp)
	require.True(t, ok)
	assert.Equal(t, "Hello", text)

	// Request carried the conversation in wire shape.
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "hi", gotBody.Contents[0].Parts[0].Text)
}

func TestGenerateContent_ServerError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"internal failure"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.GenerateContent(context.Background(), nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "internal failure", apiErr.Message)
	assert.Equal(t, 1, attempts, "single attempt, no retry")
}

func TestGenerateContent_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.GenerateContent(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateContent_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.GenerateContent(context.Background(), nil)
	assert.Error(t, err)
}

func TestFirstCandidateText(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "well formed",
			body:   `{"candidates":[{"content":{"parts":[{"text":"Hi!"}]}}]}`,
			want:   "Hi!",
			wantOK: true,
		},
		{
			name:   "no candidates",
			body:   `{"candidates":[]}`,
			wantOK: false,
		},
		{
			name:   "empty parts",
			body:   `{"candidates":[{"content":{"parts":[]}}]}`,
			wantOK: false,
		},
		{
			name:   "empty text",
			body:   `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
			wantOK: false,
		},
		{
			name:   "unexpected shape",
			body:   `{"something":"else"}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp GenerateResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			text, ok := FirstCandidateText(&resp)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestFirstCandidateText_Nil(t *testing.T) {
	_, ok := FirstCandidateText(nil)
	assert.False(t, ok)
}

func TestContentsFromMessages_PreservesOrder(t *testing.T) {
	msgs := []model.Message{
		model.NewMessage(model.RoleUser, "one"),
		model.NewMessage(model.RoleModel, "two"),
		model.NewMessage(model.RoleUser, "three"),
	}

	contents := ContentsFromMessages(msgs)
	require.Len(t, contents, 3)
	assert.Equal(t, "one", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "three", contents[2].Parts[0].Text)
}
