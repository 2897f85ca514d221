// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "strings"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Part is a single text segment of a message.
type Part struct {
	Text string `json:"text"`
}

// Message represents a single message in a conversation.
//
// The type permits several parts, but the application only ever produces
// messages with exactly one.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserMessage creates a user message holding text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// NewModelMessage creates a model message holding text.
func NewModelMessage(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// NewPlaceholder creates the empty model message reserved while a reply streams in.
func NewPlaceholder() Message {
	return NewModelMessage("")
}

// Text returns the concatenated text of all parts.
func (m Message) Text() string {
	switch len(m.Parts) {
	case 0:
		return ""
	case 1:
		return m.Parts[0].Text
	}
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// IsEmpty returns true if the message carries no text.
func (m Message) IsEmpty() bool {
	for _, p := range m.Parts {
		if p.Text != "" {
			return false
		}
	}
	return true
}

// IsUser returns true for messages written by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// Clone returns a deep copy so callers cannot alias the parts slice.
func (m Message) Clone() Message {
	parts := make([]Part, len(m.Parts))
	copy(parts, m.Parts)
	return Message{Role: m.Role, Parts: parts}
}
