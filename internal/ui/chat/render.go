// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Renderer turns message text into terminal lines of a bounded width.
// Model replies may be rendered as markdown; user text is always wrapped
// as typed.
type Renderer struct {
	markdown bool
	style    string
	logger   *slog.Logger

	width int
	term  *glamour.TermRenderer
	cache map[string]string
}

// NewRenderer creates a Renderer. style is a glamour standard style name
// such as "dark" or "light".
func NewRenderer(markdown bool, style string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		markdown: markdown,
		style:    style,
		logger:   logger,
		cache:    make(map[string]string),
	}
}

// Plain wraps text to width display cells.
func (r *Renderer) Plain(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = runewidth.Wrap(line, width)
	}
	return strings.Join(lines, "\n")
}

// Markdown renders text as markdown wrapped to width. It falls back to
// Plain when markdown is disabled or rendering fails. Results are cached
// per width since finished messages are re-rendered on every frame.
func (r *Renderer) Markdown(text string, width int) string {
	return r.render(text, width, true)
}

// Live renders a reply that is still streaming. Its text changes on every
// fragment, so it is not cached.
func (r *Renderer) Live(text string, width int) string {
	return r.render(text, width, false)
}

func (r *Renderer) render(text string, width int, keep bool) string {
	if !r.markdown || width <= 0 {
		return r.Plain(text, width)
	}

	if width != r.width || r.term == nil {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			r.logger.Warn("markdown renderer unavailable", "error", err)
			r.markdown = false
			return r.Plain(text, width)
		}
		r.term = term
		r.width = width
		clear(r.cache)
	}

	if out, ok := r.cache[text]; ok {
		return out
	}

	out, err := r.term.Render(text)
	if err != nil {
		r.logger.Debug("markdown render failed", "error", err)
		return r.Plain(text, width)
	}
	out = trimBlankLines(out)
	if keep {
		r.cache[text] = out
	}
	return out
}

// Width returns the display width of the widest line of s.
func Width(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		if lw := runewidth.StringWidth(ansi.Strip(line)); lw > w {
			w = lw
		}
	}
	return w
}

// trimBlankLines removes glamour's leading and trailing blank lines.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(ansi.Strip(lines[start])) == "" {
		start++
	}
	for end > start && strings.TrimSpace(ansi.Strip(lines[end-1])) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
