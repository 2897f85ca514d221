// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/hiwar/internal/locale"
)

// KeyMap defines all keyboard bindings for the chat view.
type KeyMap struct {
	Send     key.Binding
	Newline  key.Binding
	Toggle   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

// NewKeyMap returns the key bindings with help text in the given language's
// bundle. The toggle's help names the language it switches to.
func NewKeyMap(b locale.Bundle) KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", b.Send),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "↵"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", b.Toggle),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "↑"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "↓"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "✕"),
		),
	}
}

// ShortHelp returns the bindings shown in the hint line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.Toggle, k.Quit}
}

// FullHelp returns all bindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Toggle},
		{k.PageUp, k.PageDown, k.Quit},
	}
}
