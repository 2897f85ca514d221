// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/hiwar/internal/chat"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamEventMsg delivers one event from a running exchange. It carries the
// channel so Update can keep listening.
type streamEventMsg struct {
	event core.Event
	ch    <-chan core.Event
}

// streamClosedMsg signals that the event channel of an exchange closed.
type streamClosedMsg struct {
	exchange string
}

// listen waits for the next event on ch.
func listen(exchange string, ch <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{exchange: exchange}
		}
		return streamEventMsg{event: ev, ch: ch}
	}
}
