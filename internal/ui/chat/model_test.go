// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/locale"
	"github.com/jeranaias/hiwar/internal/model"
	"github.com/jeranaias/hiwar/internal/ui/styles"
)

// =============================================================================
// TEST BACKEND
// =============================================================================

type reply struct {
	deltas []string
	err    error
}

// fakeBackend plays the queued replies in order, one per message sent on
// any of its sessions.
type fakeBackend struct {
	mu      sync.Mutex
	replies []reply
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) CreateSession(context.Context, []model.Message) (core.Session, error) {
	return fakeSession{backend: b}, nil
}

func (b *fakeBackend) pop() reply {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.replies) == 0 {
		return reply{}
	}
	r := b.replies[0]
	b.replies = b.replies[1:]
	return r
}

type fakeSession struct{ backend *fakeBackend }

func (s fakeSession) SendStreamed(_ context.Context, _ string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r := s.backend.pop()
		for _, d := range r.deltas {
			if !yield(d, nil) {
				return
			}
		}
		if r.err != nil {
			yield("", r.err)
		}
	}
}

func newTestModel(t *testing.T, lang locale.Language, replies ...reply) Model {
	t.Helper()
	backend := &fakeBackend{replies: replies}
	conv := model.NewConversationWithGreeting(lang.Text().InitialMessage)
	ctrl := core.NewController(conv, backend, nil)
	require.NoError(t, ctrl.Init(context.Background()))

	m := New(context.Background(), ctrl, Options{Language: lang, Theme: styles.NewTheme()})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// press sends a key and then feeds every stream message the resulting
// commands produce back into the model until the exchange settles.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case streamEventMsg, streamClosedMsg:
			next, cmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, cmd)
		}
	}
	return m
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func plain(s string) string {
	return ansi.Strip(s)
}

// =============================================================================
// TESTS
// =============================================================================

func TestModel_InitialView(t *testing.T) {
	m := newTestModel(t, locale.English)

	view := plain(m.View())
	assert.Contains(t, view, "AI Chat")
	assert.Contains(t, view, "العربية")
	assert.Contains(t, view, "Hello! How can I help you today?")
	assert.Contains(t, view, "Send")
}

func TestModel_NotReadyShowsTitle(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := core.NewController(model.NewConversation(), backend, nil)
	m := New(context.Background(), ctrl, Options{Language: locale.Arabic})
	assert.Equal(t, locale.Arabic.Text().Title, m.View())
}

func TestModel_SendStreamsReply(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"Hi", " there"}})

	m = typeText(t, m, "hello")
	assert.Equal(t, "hello", m.Input())

	m = press(t, m, enter)

	msgs := m.conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Text())
	assert.Equal(t, "Hi there", msgs[2].Text())
	assert.False(t, m.conv.InFlight())
	assert.Empty(t, m.Input())
	assert.Equal(t, core.StateCompleted, m.ctrl.LastOutcome())
	assert.Contains(t, plain(m.View()), "Hi there")
}

func TestModel_BlankInputDoesNothing(t *testing.T) {
	m := newTestModel(t, locale.English)

	m = typeText(t, m, "   ")
	m = press(t, m, enter)

	assert.Equal(t, 1, m.conv.Len())
	assert.False(t, m.conv.InFlight())
}

func TestModel_EnterWhileInFlightIsIgnored(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"ok"}})

	m = typeText(t, m, "first")
	next, _ := m.Update(enter) // do not drain: the exchange stays in flight
	m = next.(Model)
	require.True(t, m.conv.InFlight())

	m = typeText(t, m, "second")
	next, cmd := m.Update(enter)
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, 3, m.conv.Len())
	assert.Equal(t, "second", m.Input())
	assert.Contains(t, plain(m.View()), "•")
}

func TestModel_FailureRestoresInputAndShowsError(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"partial"}, err: errors.New("boom")})

	m = typeText(t, m, "hello")
	m = press(t, m, enter)

	assert.Equal(t, 1, m.conv.Len())
	assert.Equal(t, "hello", m.Input())
	assert.True(t, m.ctrl.Failed())

	view := plain(m.View())
	assert.Contains(t, view, "Sorry, an error occurred")
	assert.NotContains(t, view, "partial")
}

func TestModel_ErrorClearsOnNextSend(t *testing.T) {
	m := newTestModel(t, locale.English,
		reply{err: errors.New("boom")},
		reply{deltas: []string{"recovered"}},
	)

	m = typeText(t, m, "hello")
	m = press(t, m, enter)
	require.True(t, m.ctrl.Failed())

	m = press(t, m, enter) // input still holds "hello"

	assert.False(t, m.ctrl.Failed())
	assert.Equal(t, 3, m.conv.Len())
	assert.NotContains(t, plain(m.View()), "Sorry, an error occurred")
}

func TestModel_ToggleLanguage(t *testing.T) {
	m := newTestModel(t, locale.Arabic)
	assert.Equal(t, locale.Arabic, m.Language())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	assert.Equal(t, locale.English, m.Language())
	view := plain(m.View())
	assert.Contains(t, view, "AI Chat")
	assert.Contains(t, view, "العربية")
	assert.Contains(t, view, "Hello! How can I help you today?", "greeting follows the language while it is the only message")
}

func TestModel_ToggleKeepsConversation(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"Hi"}})
	m = typeText(t, m, "hello")
	m = press(t, m, enter)
	before := m.conv.Messages()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	assert.Equal(t, before, m.conv.Messages())
	assert.Contains(t, plain(m.View()), "شات الذكاء الاصطناعي")
}

func TestModel_RTLPlacesUserBubbleOnLeft(t *testing.T) {
	m := newTestModel(t, locale.Arabic, reply{deltas: []string{"ok"}})
	m = typeText(t, m, "abc")
	m = press(t, m, enter)

	for _, line := range strings.Split(plain(m.renderMessages()), "\n") {
		if strings.Contains(line, "abc") {
			assert.False(t, strings.HasPrefix(line, "      "), "user bubble should sit on the left in RTL: %q", line)
			return
		}
	}
	t.Fatal("user message not rendered")
}

func TestModel_LTRPlacesUserBubbleOnRight(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"ok"}})
	m = typeText(t, m, "abc")
	m = press(t, m, enter)

	for _, line := range strings.Split(plain(m.renderMessages()), "\n") {
		if strings.Contains(line, "abc") {
			assert.True(t, strings.HasPrefix(line, "      "), "user bubble should sit on the right in LTR: %q", line)
			return
		}
	}
	t.Fatal("user message not rendered")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, locale.English)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Error(t, m.ctx.Err())
}

func TestModel_StreamClosedWithoutTerminalFails(t *testing.T) {
	m := newTestModel(t, locale.English, reply{deltas: []string{"x"}})
	m = typeText(t, m, "hello")
	next, _ := m.Update(enter)
	m = next.(Model)

	cur := m.ctrl.Current()
	require.NotNil(t, cur)
	m = update(t, m, streamClosedMsg{exchange: cur.ID})

	assert.False(t, m.conv.InFlight())
	assert.Equal(t, 1, m.conv.Len())
	assert.Equal(t, "hello", m.Input())
}
