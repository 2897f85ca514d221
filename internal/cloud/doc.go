// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides OpenRouter integration for cloud LLM inference.
//
// OpenRouter exposes many models behind one OpenAI-compatible API. Replies
// are streamed as Server-Sent Events and parsed by SSEReader.
//
// # Key Types
//
//   - OpenRouterClient: HTTP client for the chat completions endpoint
//   - ChatMessage: chat message in OpenRouter's wire format
//   - Backend: chat.Backend whose sessions resend the whole history each turn
//
// # Usage
//
//	client := cloud.NewOpenRouterClient(apiKey).WithModel("openai/gpt-4o-mini")
//	err := client.ChatStream(ctx, []cloud.ChatMessage{cloud.NewUserMessage("Hello")},
//	    func(chunk cloud.StreamChunk) { fmt.Print(chunk.GetContent()) })
//
// API keys are never logged.
package cloud
