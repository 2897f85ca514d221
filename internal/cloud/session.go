// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"iter"

	"github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/model"
)

// Backend adapts an OpenRouterClient to chat.Backend. OpenRouter has no
// server-side sessions, so each session holds its history and sends it in
// full with every message.
type Backend struct {
	client *OpenRouterClient
}

// NewBackend creates a Backend. It fails with ErrNotConfigured when the
// client has no API key.
func NewBackend(client *OpenRouterClient) (*Backend, error) {
	if !client.IsConfigured() {
		return nil, ErrNotConfigured
	}
	return &Backend{client: client}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string {
	return "openrouter"
}

// Model returns the model identifier.
func (b *Backend) Model() string {
	return b.client.GetModel()
}

// Close releases idle connections held by the HTTP client.
func (b *Backend) Close() error {
	b.client.httpClient.CloseIdleConnections()
	return nil
}

// CreateSession returns a session bound to history.
func (b *Backend) CreateSession(_ context.Context, history []model.Message) (chat.Session, error) {
	return &session{client: b.client, history: ToChatMessages(history)}, nil
}

type session struct {
	client  *OpenRouterClient
	history []ChatMessage
}

// SendStreamed sends the history followed by text.
func (s *session) SendStreamed(ctx context.Context, text string) iter.Seq2[string, error] {
	messages := make([]ChatMessage, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, NewUserMessage(text))

	return chat.FromCallback(ctx, func(ctx context.Context, emit func(string)) error {
		return s.client.ChatStream(ctx, messages, func(chunk StreamChunk) {
			if content := chunk.GetContent(); content != "" {
				emit(content)
			}
		})
	})
}

// ToChatMessages converts conversation messages to OpenRouter's format.
// The model role maps to "assistant".
func ToChatMessages(history []model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == model.RoleModel {
			out = append(out, NewAssistantMessage(m.Text()))
			continue
		}
		out = append(out, NewUserMessage(m.Text()))
	}
	return out
}
