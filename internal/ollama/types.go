// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message in the Ollama API format.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`             // Model name (e.g., "qwen2.5:7b")
	Messages []Message `json:"messages"`          // Conversation history
	Stream   bool      `json:"stream"`            // Enable streaming
	Options  *Options  `json:"options,omitempty"` // Model parameters
}

// Options contains model parameters for generation.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"` // 0.0-2.0, default 0.8
	TopK        int     `json:"top_k,omitempty"`       // Default 40
	TopP        float64 `json:"top_p,omitempty"`       // 0.0-1.0, default 0.9
	NumCtx      int     `json:"num_ctx,omitempty"`     // Context window size
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// chatLine is one line of a streamed /api/chat response.
type chatLine struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	TotalDuration   int64  `json:"total_duration,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// StreamChunk represents a single chunk from streaming response.
type StreamChunk struct {
	// Content from this chunk
	Content string

	// Populated on the final chunk only
	Done             bool
	DoneReason       string
	TotalDuration    time.Duration
	PromptTokens     int
	CompletionTokens int

	Model string
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// OllamaError represents an error from the Ollama API.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
