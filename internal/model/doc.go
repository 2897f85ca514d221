// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: a role ("user" or "model") and an ordered list of text parts
//   - Conversation: the ordered message list, the input draft and the
//     in-flight guard, with the four mutations used by an exchange
//
// # Usage
//
//	conv := model.NewConversationWithGreeting("Hello! How can I help you today?")
//	if conv.AppendUser("hello") {
//	    conv.AppendPlaceholder()
//	    conv.SetInFlight(true)
//	}
//	_ = conv.ReplaceLastText("Hi")
//	_ = conv.ReplaceLastText("Hi there")
package model
