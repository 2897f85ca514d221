// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/locale"
	"github.com/jeranaias/hiwar/internal/model"
	"github.com/jeranaias/hiwar/internal/ui/styles"
)

// Layout constants.
const (
	headerHeight = 2 // title row plus bottom border
	inputHeight  = 3 // textarea rows
	hintHeight   = 1
	chromeHeight = headerHeight + inputHeight + 1 + hintHeight
)

// errStreamClosed is reported when an exchange's channel closes without a
// terminal event, which happens when the program is shutting down.
var errStreamClosed = errors.New("stream closed before completion")

// Options configures the chat view.
type Options struct {
	Language locale.Language
	Markdown bool
	Theme    *styles.Theme
	Logger   *slog.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl   *core.Controller
	conv   *model.Conversation
	lang   locale.Language
	theme  *styles.Theme
	render *Renderer
	logger *slog.Logger

	keys     KeyMap
	help     help.Model
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	// changed is set by the conversation listener and cleared when the
	// viewport is rebuilt. It is shared by every copy of the model.
	changed *bool

	width  int
	height int
	ready  bool
}

// New creates the chat view for ctrl. The conversation should already hold
// the greeting of opts.Language.
func New(ctx context.Context, ctrl *core.Controller, opts Options) Model {
	ctx, cancel := context.WithCancel(ctx)

	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lang := opts.Language
	if !lang.Valid() {
		lang = locale.Default
	}

	glamourStyle := "light"
	if theme.IsDark {
		glamourStyle = "dark"
	}

	input := textarea.New()
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(styles.BouncingDots.Spinner()))

	changed := new(bool)
	*changed = true
	ctrl.Conversation().OnChange(func() { *changed = true })

	m := Model{
		ctx:      ctx,
		cancel:   cancel,
		ctrl:     ctrl,
		conv:     ctrl.Conversation(),
		lang:     lang,
		theme:    theme,
		render:   NewRenderer(opts.Markdown, glamourStyle, logger),
		logger:   logger,
		help:     help.New(),
		input:    input,
		viewport: viewport.New(0, 0),
		spinner:  spin,
		changed:  changed,
	}
	m.applyLanguage()
	return m
}

// Language returns the active language.
func (m Model) Language() locale.Language {
	return m.lang
}

// Input returns the text in the input box.
func (m Model) Input() string {
	return m.input.Value()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tea.SetWindowTitle(m.lang.Text().Title))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case streamEventMsg:
		m, cmd = m.handleStreamEvent(msg)

	case streamClosedMsg:
		m.handleStreamClosed(msg)

	case spinner.TickMsg:
		// Keep animating only while a reply is pending
		if m.conv.InFlight() {
			m.spinner, cmd = m.spinner.Update(msg)
			*m.changed = true
		}

	default:
		m.input, cmd = m.input.Update(msg)
	}

	if *m.changed && m.ready {
		m.refresh()
	}
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.lang = m.lang.Toggle()
		m.conv.Reseed(m.lang.Text().InitialMessage)
		m.applyLanguage()
		if m.ready {
			m.resize(m.width, m.height)
		}
		return m, tea.SetWindowTitle(m.lang.Text().Title)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.conv.SetDraft(m.input.Value())
	return m, cmd
}

// submit starts an exchange with the input text. Nothing happens while a
// reply is in flight or when the input is blank.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	m.conv.SetDraft(text)
	if !m.conv.CanSend() {
		return m, nil
	}

	ex, ok := m.ctrl.Begin(m.ctx, text)
	if !ok {
		return m, nil
	}
	m.input.Reset()

	ch := m.ctrl.Stream(m.ctx, ex)
	return m, tea.Batch(listen(ex.ID, ch), m.spinner.Tick)
}

// =============================================================================
// STREAM HANDLING
// =============================================================================

func (m Model) handleStreamEvent(msg streamEventMsg) (Model, tea.Cmd) {
	m.ctrl.Apply(m.ctx, msg.event)

	switch msg.event.Kind {
	case core.EventFragment:
		return m, listen(msg.event.Exchange, msg.ch)
	case core.EventFailed:
		m.restoreDraft()
	}
	return m, nil
}

func (m *Model) handleStreamClosed(msg streamClosedMsg) {
	cur := m.ctrl.Current()
	if cur == nil || cur.ID != msg.exchange {
		return
	}
	m.ctrl.Apply(m.ctx, core.Event{
		Exchange: cur.ID,
		Kind:     core.EventFailed,
		Err:      &core.StreamFailure{Exchange: cur.ID, Err: errStreamClosed},
	})
	m.restoreDraft()
}

// restoreDraft puts the text of a failed exchange back in the input.
func (m *Model) restoreDraft() {
	m.input.SetValue(m.conv.Draft())
	m.input.CursorEnd()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight

	inputWidth := width - lipgloss.Width(m.sendButton()) - 1
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.SetWidth(inputWidth)
	m.help.Width = width

	m.ready = true
	*m.changed = true
}

// applyLanguage updates every language-dependent piece of the view.
func (m *Model) applyLanguage() {
	b := m.lang.Text()
	m.input.Placeholder = b.Placeholder
	m.keys = NewKeyMap(b)
	*m.changed = true
}

// refresh rebuilds the viewport content and scrolls to the bottom.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	*m.changed = false
}
