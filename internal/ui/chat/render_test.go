// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestRenderer_PlainWrapsByDisplayWidth(t *testing.T) {
	r := NewRenderer(false, "dark", nil)

	out := r.Plain(strings.Repeat("مرحبا ", 10), 12)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, Width(line), 12)
	}
	assert.Equal(t, "a\nb", r.Plain("a\nb", 10))
	assert.Equal(t, "abc", r.Plain("abc", 0))
}

func TestRenderer_MarkdownDisabledIsPlain(t *testing.T) {
	r := NewRenderer(false, "dark", nil)
	assert.Equal(t, "**bold**", r.Markdown("**bold**", 40))
}

func TestRenderer_Markdown(t *testing.T) {
	r := NewRenderer(true, "dark", nil)

	out := ansi.Strip(r.Markdown("some **bold** text", 40))
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
	assert.False(t, strings.HasPrefix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))

	assert.Len(t, r.cache, 1)
	r.Live("streaming **text", 40)
	assert.Len(t, r.cache, 1)

	r.Markdown("other", 30)
	assert.Len(t, r.cache, 1, "cache resets when the width changes")
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 5, Width("ab\nabcde\n"))
	assert.Equal(t, 2, Width("\x1b[1mhi\x1b[0m"))
	assert.Equal(t, 0, Width(""))
}
