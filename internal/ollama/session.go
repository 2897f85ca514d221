// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"iter"

	"github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/model"
)

// Backend adapts a Client to chat.Backend. Ollama's chat endpoint is
// stateless, so every session resends its history with each message.
type Backend struct {
	client *Client
	model  string
}

// NewBackend creates a Backend for the given model. An empty model uses the
// client's default.
func NewBackend(client *Client, model string) *Backend {
	if model == "" {
		model = client.GetDefaultModel()
	}
	return &Backend{client: client, model: model}
}

// Name returns the provider name.
func (b *Backend) Name() string {
	return "ollama"
}

// Model returns the model name.
func (b *Backend) Model() string {
	return b.model
}

// Close releases idle connections to the Ollama server.
func (b *Backend) Close() error {
	b.client.httpClient.CloseIdleConnections()
	b.client.streamClient.CloseIdleConnections()
	return nil
}

// CreateSession returns a session bound to history.
func (b *Backend) CreateSession(_ context.Context, history []model.Message) (chat.Session, error) {
	return &session{backend: b, history: ToMessages(history)}, nil
}

type session struct {
	backend *Backend
	history []Message
}

// SendStreamed sends the history followed by text.
func (s *session) SendStreamed(ctx context.Context, text string) iter.Seq2[string, error] {
	messages := make([]Message, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, NewUserMessage(text))

	return chat.FromCallback(ctx, func(ctx context.Context, emit func(string)) error {
		return s.backend.client.ChatStream(ctx, s.backend.model, messages, func(chunk StreamChunk) {
			if chunk.Content != "" {
				emit(chunk.Content)
			}
		})
	})
}

// ToMessages converts conversation messages to the Ollama format.
func ToMessages(history []model.Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == model.RoleModel {
			out = append(out, NewAssistantMessage(m.Text()))
			continue
		}
		out = append(out, NewUserMessage(m.Text()))
	}
	return out
}
