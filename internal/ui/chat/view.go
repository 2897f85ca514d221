// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hiwar/internal/locale"
	"github.com/jeranaias/hiwar/internal/model"
	"github.com/jeranaias/hiwar/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return m.lang.Text().Title
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.help.View(m.keys),
	)
}

// renderHeader shows the title on the leading side and the toggle label on
// the trailing side.
func (m Model) renderHeader() string {
	b := m.lang.Text()
	title := m.theme.HeaderTitle.Render(b.Title)
	toggle := m.theme.Toggle.Render(b.Toggle)

	inner := m.width - m.theme.Header.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(title) - lipgloss.Width(toggle)
	if gap < 1 {
		gap = 1
	}
	spacer := strings.Repeat(" ", gap)

	row := title + spacer + toggle
	if m.lang.Direction() == locale.RTL {
		row = toggle + spacer + title
	}
	return m.theme.Header.Width(m.width).Render(row)
}

// renderMessages renders every message as a bubble, followed by the error
// bubble when the last exchange failed.
func (m Model) renderMessages() string {
	dir := m.lang.Direction()
	width := m.viewport.Width
	textWidth := styles.BubbleWidth(width) - m.theme.ModelBubble.GetHorizontalFrameSize()

	messages := m.conv.Messages()
	inFlight := m.conv.InFlight()
	blocks := make([]string, 0, len(messages)+1)

	for i, msg := range messages {
		pending := inFlight && i == len(messages)-1 && msg.Role == model.RoleModel

		var bubble string
		switch {
		case pending && msg.IsEmpty():
			bubble = m.theme.LoadingDots.Render(m.spinner.View())
		case msg.IsUser():
			bubble = m.bubbleStyle(msg.Role).Render(m.render.Plain(msg.Text(), textWidth))
		case pending:
			bubble = m.bubbleStyle(msg.Role).Render(m.render.Live(msg.Text(), textWidth))
		default:
			bubble = m.bubbleStyle(msg.Role).Render(m.render.Markdown(msg.Text(), textWidth))
		}
		blocks = append(blocks, m.theme.Place(width, dir, msg.Role, bubble))
	}

	if m.ctrl.Failed() {
		text := m.render.Plain(m.lang.Text().Error, textWidth-m.theme.ErrorBubble.GetHorizontalBorderSize())
		blocks = append(blocks, m.theme.Place(width, dir, model.RoleModel, m.theme.ErrorBubble.Render(text)))
	}

	return strings.Join(blocks, "\n\n")
}

// bubbleStyle aligns bubble text with the reading direction.
func (m Model) bubbleStyle(role model.Role) lipgloss.Style {
	style := m.theme.Bubble(role)
	if m.lang.Direction() == locale.RTL {
		return style.Align(lipgloss.Right)
	}
	return style
}

// renderInput lays out the text input and the send button, mirrored
// under RTL.
func (m Model) renderInput() string {
	send := m.sendButton()
	field := m.input.View()

	row := lipgloss.JoinHorizontal(lipgloss.Bottom, field, " ", send)
	if m.lang.Direction() == locale.RTL {
		row = lipgloss.JoinHorizontal(lipgloss.Bottom, send, " ", field)
	}
	return m.theme.InputContainer.Width(m.width).Render(row)
}

// sendButton renders the send label, dimmed while sending is not allowed.
func (m Model) sendButton() string {
	label := m.lang.Text().Send
	if m.conv.InFlight() || strings.TrimSpace(m.input.Value()) == "" {
		return m.theme.SendDisabled.Render(label)
	}
	return m.theme.SendEnabled.Render(label)
}
