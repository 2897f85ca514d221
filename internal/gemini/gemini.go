// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini connects the chat controller to Google's Gemini API through
// the official genai SDK. Each session is a genai chat seeded with the
// conversation history.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/model"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Gemini API key not configured")

	// ErrIncompleteStream indicates the stream ended before a finish reason.
	ErrIncompleteStream = errors.New("stream ended before completion")
)

// Options configures a Backend.
type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	TopP        float32
	TopK        float32

	// BaseURL overrides the API endpoint (used by tests).
	BaseURL string
}

// Backend creates genai chat sessions.
type Backend struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// New creates a Backend. The API key is required.
func New(ctx context.Context, opts Options) (*Backend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(opts.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Backend{
		client: client,
		model:  opts.Model,
		config: &genai.GenerateContentConfig{
			Temperature: ptr(opts.Temperature),
			TopP:        ptr(opts.TopP),
			TopK:        ptr(opts.TopK),
		},
	}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string {
	return "gemini"
}

// Model returns the model identifier.
func (b *Backend) Model() string {
	return b.model
}

// CreateSession starts a genai chat seeded with history. No request is made
// until the first message is sent.
func (b *Backend) CreateSession(ctx context.Context, history []model.Message) (chat.Session, error) {
	c, err := b.client.Chats.Create(ctx, b.model, b.config, ToContents(history))
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &session{chat: c}, nil
}

type session struct {
	chat *genai.Chat
}

// SendStreamed streams the reply to text, yielding the text of each response
// chunk. A stream that ends without a finish reason fails with
// ErrIncompleteStream.
func (s *session) SendStreamed(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		finished := false
		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if FinishReason(resp) != "" {
				finished = true
			}
			if !yield(ResponseText(resp), nil) {
				return
			}
		}
		if !finished {
			yield("", fmt.Errorf("gemini stream: %w", ErrIncompleteStream))
		}
	}
}

// ToContents converts conversation messages to genai contents.
func ToContents(history []model.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		parts := make([]*genai.Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, &genai.Part{Text: p.Text})
		}
		role := string(genai.RoleUser)
		if m.Role == model.RoleModel {
			role = string(genai.RoleModel)
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

// ResponseText returns the concatenated text parts of the first candidate,
// skipping thought parts.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// FinishReason returns the finish reason of the first candidate, or "" while
// the reply is still streaming.
func FinishReason(resp *genai.GenerateContentResponse) genai.FinishReason {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return resp.Candidates[0].FinishReason
}

func ptr[T any](v T) *T {
	return &v
}
