// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view for the hiwar TUI.

Model is a Bubble Tea model that displays a model.Conversation and drives a
chat.Controller. It is the only place the conversation is mutated from once
the program is running: stream events arrive as Bubble Tea messages and are
applied in Update, so rendering always sees a consistent conversation.

# Layout

  - Header with the localized title and the language toggle label
  - Viewport of message bubbles, user messages on the trailing side
  - Error bubble after a failed exchange, until the next submission
  - Text input with the localized placeholder and a send button

Everything mirrors when the active language is right-to-left.

# Keys

  - Enter sends, Alt+Enter inserts a newline
  - Ctrl+T switches between Arabic and English
  - PgUp/PgDn scroll, Esc or Ctrl+C quits
*/
package chat
