// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Ollama streams chat replies as newline-delimited JSON. Client.ChatStream
// decodes them with StreamReader and reports each chunk through a callback.
// Backend wraps the client as a chat.Backend for local models.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: "http://127.0.0.1:11434"})
//	err := client.ChatStream(ctx, "qwen2.5:7b",
//	    []ollama.Message{ollama.NewUserMessage("Hello")},
//	    func(chunk ollama.StreamChunk) { fmt.Print(chunk.Content) })
package ollama
