// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_Text(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{name: "no parts", msg: Message{Role: RoleModel}, want: ""},
		{name: "single part", msg: NewUserMessage("hello"), want: "hello"},
		{
			name: "multiple parts",
			msg:  Message{Role: RoleModel, Parts: []Part{{Text: "مرحبا"}, {Text: " world"}}},
			want: "مرحبا world",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.msg.Text())
		})
	}
}

func TestMessage_Clone(t *testing.T) {
	orig := NewUserMessage("a")
	clone := orig.Clone()
	clone.Parts[0].Text = "b"
	assert.Equal(t, "a", orig.Text())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_InitialGreeting(t *testing.T) {
	conv := NewConversationWithGreeting("Hello! How can I help you today?")

	require.Equal(t, 1, conv.Len())
	last, ok := conv.Last()
	require.True(t, ok)
	assert.Equal(t, RoleModel, last.Role)
	assert.Equal(t, "Hello! How can I help you today?", last.Text())
	assert.False(t, conv.InFlight())
	assert.Empty(t, conv.History(), "greeting must not be part of the model history")
}

func TestConversation_AppendUserRejectsBlank(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n", "   \n  "} {
		conv := NewConversationWithGreeting("hi")
		assert.False(t, conv.AppendUser(input), "input %q", input)
		assert.Equal(t, 1, conv.Len())
		assert.False(t, conv.InFlight())
	}
}

func TestConversation_AppendUserRejectsWhileInFlight(t *testing.T) {
	conv := NewConversation()
	require.True(t, conv.AppendUser("first"))
	conv.AppendPlaceholder()
	conv.SetInFlight(true)

	assert.False(t, conv.AppendUser("second"))
	assert.Equal(t, 2, conv.Len())
	assert.True(t, conv.InFlight())
}

func TestConversation_AppendUserKeepsText(t *testing.T) {
	conv := NewConversation()
	require.True(t, conv.AppendUser("  padded  "))
	last, _ := conv.Last()
	assert.Equal(t, "  padded  ", last.Text())
	assert.Equal(t, RoleUser, last.Role)
}

func TestConversation_ReplaceLastTextIsFullReplace(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("hello")
	conv.AppendPlaceholder()

	for _, s := range []string{"H", "Hi", "Hi there"} {
		require.NoError(t, conv.ReplaceLastText(s))
	}

	last, _ := conv.Last()
	assert.Equal(t, "Hi there", last.Text())
	assert.Len(t, last.Parts, 1)
	assert.Equal(t, 2, conv.Len())
}

func TestConversation_ReplaceLastTextErrors(t *testing.T) {
	conv := NewConversation()
	assert.ErrorIs(t, conv.ReplaceLastText("x"), ErrEmptyConversation)

	conv.AppendUser("hello")
	assert.ErrorIs(t, conv.ReplaceLastText("x"), ErrNotModelMessage)

	last, _ := conv.Last()
	assert.Equal(t, "hello", last.Text())
}

func TestConversation_DropLast(t *testing.T) {
	conv := NewConversationWithGreeting("hi")
	conv.AppendUser("hello")
	conv.AppendPlaceholder()

	dropped, ok := conv.DropLast()
	require.True(t, ok)
	assert.Equal(t, RoleModel, dropped.Role)
	assert.True(t, dropped.IsEmpty())
	assert.Equal(t, 2, conv.Len())

	conv.DropLast()
	conv.DropLast()
	_, ok = conv.DropLast()
	assert.False(t, ok)
	assert.Empty(t, conv.History())
}

func TestConversation_OnChangeFiresPerMutation(t *testing.T) {
	conv := NewConversation()
	calls := 0
	conv.OnChange(func() { calls++ })

	conv.AppendUser("   ") // rejected, no notification
	conv.AppendUser("hello")
	conv.AppendPlaceholder()
	conv.SetInFlight(true)
	conv.SetInFlight(true) // unchanged, no notification
	_ = conv.ReplaceLastText("Hi")
	conv.DropLast()
	conv.SetInFlight(false)

	assert.Equal(t, 6, calls)
}

func TestConversation_HistoryExcludesPlaceholderWhileInFlight(t *testing.T) {
	conv := NewConversationWithGreeting("hi")
	conv.AppendUser("hello")
	conv.AppendPlaceholder()
	conv.SetInFlight(true)

	history := conv.History()
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Text())

	require.NoError(t, conv.ReplaceLastText("Hi there"))
	assert.Len(t, conv.History(), 2)
}

func TestConversation_Reseed(t *testing.T) {
	conv := NewConversationWithGreeting("مرحباً!")
	assert.True(t, conv.Reseed("Hello!"))
	last, _ := conv.Last()
	assert.Equal(t, "Hello!", last.Text())
	assert.Equal(t, 1, conv.Len())

	conv.AppendUser("hello")
	assert.False(t, conv.Reseed("مرحباً!"))
	first := conv.Messages()[0]
	assert.Equal(t, "Hello!", first.Text())
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("hello")

	msgs := conv.Messages()
	msgs[0].Parts[0].Text = "mutated"

	last, _ := conv.Last()
	assert.Equal(t, "hello", last.Text())
}

func TestConversation_CanSend(t *testing.T) {
	conv := NewConversation()
	assert.False(t, conv.CanSend())

	conv.SetDraft("hello")
	assert.True(t, conv.CanSend())

	conv.SetInFlight(true)
	assert.False(t, conv.CanSend())

	conv.SetInFlight(false)
	conv.ClearDraft()
	assert.False(t, conv.CanSend())
}

func TestWithoutEmptyReplies(t *testing.T) {
	history := []Message{
		NewUserMessage("a"),
		NewModelMessage(""),
		NewUserMessage(""),
		NewModelMessage("b"),
	}

	got := WithoutEmptyReplies(history)
	require.Len(t, got, 3)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, RoleUser, got[1].Role)
	assert.Equal(t, "b", got[2].Text())
}
