// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"strings"
)

// Errors returned by ReplaceLastText.
var (
	// ErrEmptyConversation indicates there is no message to replace.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrNotModelMessage indicates the last message was not written by the model.
	ErrNotModelMessage = errors.New("last message is not a model message")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message list shown in the chat view, plus the
// input draft and the in-flight guard of the current exchange.
//
// Insertion order is chronological order is display order. The list is
// append-only except for two mutations that only touch the last element:
// ReplaceLastText while a reply streams in, and DropLast to roll back a
// failed exchange.
//
// A Conversation is owned by a single goroutine (the UI update loop) and is
// not safe for concurrent use.
type Conversation struct {
	messages []Message

	// seeded counts the leading greeting messages. They are displayed but
	// never sent to the model.
	seeded int

	draft    string
	inFlight bool

	listeners []func()
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{messages: make([]Message, 0, 8)}
}

// NewConversationWithGreeting creates a conversation seeded with a single
// model greeting.
func NewConversationWithGreeting(greeting string) *Conversation {
	c := NewConversation()
	c.seed(greeting)
	return c
}

// OnChange registers fn to be called after every mutation of the message
// list or the in-flight flag. The display uses it to re-render and scroll to
// the bottom.
func (c *Conversation) OnChange(fn func()) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

func (c *Conversation) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AppendUser appends a user message holding text.
// It is a no-op returning false when text is blank or an exchange is in flight.
func (c *Conversation) AppendUser(text string) bool {
	if strings.TrimSpace(text) == "" || c.inFlight {
		return false
	}
	c.messages = append(c.messages, NewUserMessage(text))
	c.notify()
	return true
}

// AppendPlaceholder appends the empty model message that the streamed reply
// is written into.
func (c *Conversation) AppendPlaceholder() {
	c.messages = append(c.messages, NewPlaceholder())
	c.notify()
}

// ReplaceLastText overwrites the text of the last message, which must be a
// model message. Each call is a full replacement: calling it with "Hi" and
// then "Hi there" leaves "Hi there", never "HiHi there".
func (c *Conversation) ReplaceLastText(fullText string) error {
	if len(c.messages) == 0 {
		return ErrEmptyConversation
	}
	last := len(c.messages) - 1
	if c.messages[last].Role != RoleModel {
		return ErrNotModelMessage
	}
	c.messages[last] = NewModelMessage(fullText)
	c.notify()
	return nil
}

// DropLast removes and returns the last message.
func (c *Conversation) DropLast() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	last := c.messages[len(c.messages)-1]
	c.messages = c.messages[:len(c.messages)-1]
	if c.seeded > len(c.messages) {
		c.seeded = len(c.messages)
	}
	c.notify()
	return last, true
}

// SetInFlight sets the in-flight guard.
func (c *Conversation) SetInFlight(inFlight bool) {
	if c.inFlight == inFlight {
		return
	}
	c.inFlight = inFlight
	c.notify()
}

// Reseed replaces the greeting when the conversation holds nothing but the
// greeting, and reports whether it did. Once the user has written anything
// the messages are left untouched.
func (c *Conversation) Reseed(greeting string) bool {
	if c.inFlight || c.seeded == 0 || len(c.messages) != c.seeded {
		return false
	}
	c.messages = c.messages[:0]
	c.seeded = 0
	c.seed(greeting)
	c.notify()
	return true
}

func (c *Conversation) seed(greeting string) {
	if greeting == "" {
		return
	}
	c.messages = append(c.messages, NewModelMessage(greeting))
	c.seeded = 1
}

// SetDraft stores the text currently typed in the input box.
func (c *Conversation) SetDraft(text string) {
	c.draft = text
}

// ClearDraft empties the input draft.
func (c *Conversation) ClearDraft() {
	c.draft = ""
}

// =============================================================================
// QUERIES
// =============================================================================

// Draft returns the text currently typed in the input box.
func (c *Conversation) Draft() string {
	return c.draft
}

// CanSend reports whether the current draft may be submitted.
func (c *Conversation) CanSend() bool {
	return !c.inFlight && strings.TrimSpace(c.draft) != ""
}

// InFlight reports whether an exchange is in progress.
func (c *Conversation) InFlight() bool {
	return c.inFlight
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of the messages in display order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// History returns the messages to seed a model session with: everything
// except the greeting and, while an exchange is in flight, the trailing
// empty placeholder.
func (c *Conversation) History() []Message {
	msgs := c.messages[c.seeded:]
	if c.inFlight && len(msgs) > 0 {
		if last := msgs[len(msgs)-1]; last.Role == RoleModel && last.IsEmpty() {
			msgs = msgs[:len(msgs)-1]
		}
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// WithoutEmptyReplies returns history minus the model messages that carry no
// text. User messages are kept even when empty.
func WithoutEmptyReplies(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleModel && m.IsEmpty() {
			continue
		}
		out = append(out, m)
	}
	return out
}
