// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/hiwar/internal/locale"
	"github.com/jeranaias/hiwar/internal/model"
)

// BubbleMaxRatio is the widest a bubble may be relative to the view.
const BubbleMaxRatio = 0.8

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Toggle      lipgloss.Style

	// Message bubbles
	UserBubble  lipgloss.Style
	ModelBubble lipgloss.Style
	ErrorBubble lipgloss.Style
	LoadingDots lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	SendEnabled    lipgloss.Style
	SendDisabled   lipgloss.Style
	Hint           lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue)

	t.Toggle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Underline(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		Padding(0, 1)

	t.ModelBubble = lipgloss.NewStyle().
		Foreground(ModelBubbleFg).
		Background(ModelBubbleBg).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		Background(ErrorBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.LoadingDots = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(ModelBubbleBg).
		Padding(0, 1)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.SendEnabled = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserBubbleFg).
		Background(Blue).
		Padding(0, 2)

	t.SendDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(Overlay).
		Padding(0, 2)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// Bubble returns the bubble style for a message role.
func (t *Theme) Bubble(role model.Role) lipgloss.Style {
	if role == model.RoleUser {
		return t.UserBubble
	}
	return t.ModelBubble
}

// Side returns the horizontal position of a bubble. User messages sit on
// the trailing side of the reading direction and model messages on the
// leading side, so the layout mirrors under RTL.
func Side(dir locale.Direction, role model.Role) lipgloss.Position {
	leading := lipgloss.Left
	trailing := lipgloss.Right
	if dir == locale.RTL {
		leading, trailing = trailing, leading
	}
	if role == model.RoleUser {
		return trailing
	}
	return leading
}

// Place positions a rendered bubble within width for the given direction.
func (t *Theme) Place(width int, dir locale.Direction, role model.Role, bubble string) string {
	return lipgloss.PlaceHorizontal(width, Side(dir, role), bubble)
}

// BubbleWidth returns the maximum content width of a bubble in a view of
// the given width.
func BubbleWidth(width int) int {
	w := int(float64(width) * BubbleMaxRatio)
	if w < 10 {
		w = 10
	}
	return w
}
