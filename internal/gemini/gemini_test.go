// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jeranaias/hiwar/internal/model"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Options{APIKey: "   "})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_DefaultModel(t *testing.T) {
	b, err := New(context.Background(), Options{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, b.Model())
	assert.Equal(t, "gemini", b.Name())
}

func TestToContents(t *testing.T) {
	history := []model.Message{
		model.NewUserMessage("hello"),
		model.NewModelMessage("Hi there"),
	}

	got := ToContents(history)
	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, "model", got[1].Role)
	require.Len(t, got[1].Parts, 1)
	assert.Equal(t, "Hi there", got[1].Parts[0].Text)
}

func TestToContents_Empty(t *testing.T) {
	assert.Empty(t, ToContents(nil))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "Hi "},
					{Text: "there"},
				},
			},
		}},
	}
	assert.Equal(t, "Hi there", ResponseText(resp))
	assert.Equal(t, "", ResponseText(nil))
	assert.Equal(t, "", ResponseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", ResponseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

// streamServer serves chunks as Gemini SSE events. The last chunk carries
// finish, which is omitted when empty.
func streamServer(t *testing.T, finish string, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "streamGenerateContent")
		w.Header().Set("Content-Type", "text/event-stream")
		for i, c := range chunks {
			reason := ""
			if i == len(chunks)-1 && finish != "" {
				reason = fmt.Sprintf(",\"finishReason\":%q", finish)
			}
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}%s}]}\n\n", c, reason)
		}
	}))
}

func TestSendStreamed_SSE(t *testing.T) {
	server := streamServer(t, "STOP", "Hi", " there")
	defer server.Close()

	b, err := New(context.Background(), Options{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	s, err := b.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	var got strings.Builder
	for delta, err := range s.SendStreamed(context.Background(), "hello") {
		require.NoError(t, err)
		got.WriteString(delta)
	}
	assert.Equal(t, "Hi there", got.String())
}

func TestSendStreamed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	b, err := New(context.Background(), Options{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	s, err := b.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	var failed error
	for _, err := range s.SendStreamed(context.Background(), "hello") {
		if err != nil {
			failed = err
		}
	}
	assert.Error(t, failed)
}

func TestSendStreamed_EndsWithoutFinishReason(t *testing.T) {
	server := streamServer(t, "", "Hel")
	defer server.Close()

	b, err := New(context.Background(), Options{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	s, err := b.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	var got strings.Builder
	var last error
	for delta, err := range s.SendStreamed(context.Background(), "hello") {
		if err != nil {
			last = err
			continue
		}
		got.WriteString(delta)
	}
	assert.Equal(t, "Hel", got.String())
	assert.ErrorIs(t, last, ErrIncompleteStream)
}

func TestFinishReason(t *testing.T) {
	assert.Equal(t, genai.FinishReason(""), FinishReason(nil))
	assert.Equal(t, genai.FinishReasonStop, FinishReason(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
	}))
}
