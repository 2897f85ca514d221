// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the hiwar TUI.
//
// Colors are lipgloss.AdaptiveColor values so they follow the terminal's
// light or dark background. Theme holds every style the chat view uses and
// knows how to place bubbles for left-to-right and right-to-left layouts.
//
// # Usage
//
//	theme := styles.NewTheme()
//	bubble := theme.Bubble(model.RoleUser).Render(text)
//	line := theme.Place(width, locale.RTL, model.RoleUser, bubble)
package styles
