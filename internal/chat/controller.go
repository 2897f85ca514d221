// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/hiwar/internal/model"
)

// =============================================================================
// EXCHANGE STATE
// =============================================================================

// State is the position of the controller in the exchange state machine:
// Idle -> UserSubmitted -> PlaceholderReserved -> Streaming -> Completed|Failed -> Idle.
type State int

const (
	StateIdle State = iota
	StateUserSubmitted
	StatePlaceholderReserved
	StateStreaming
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserSubmitted:
		return "user_submitted"
	case StatePlaceholderReserved:
		return "placeholder_reserved"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind distinguishes stream events.
type EventKind int

const (
	EventFragment EventKind = iota
	EventCompleted
	EventFailed
)

// Event is produced by Controller.Stream and consumed by Controller.Apply.
type Event struct {
	Exchange string
	Kind     EventKind
	Text     string // cumulative reply text so far
	Err      error  // *StreamFailure for EventFailed
}

// Exchange is one user submission and its streamed reply.
type Exchange struct {
	ID   string
	Text string

	prior     []model.Message
	session   Session
	createErr error
	started   time.Time
	fragments int
}

// reply returns the delta sequence of the exchange. A missing session
// yields a single failure.
func (ex *Exchange) reply(ctx context.Context) iter.Seq2[string, error] {
	switch {
	case ex.createErr != nil:
		return Fail(ex.createErr)
	case ex.session == nil:
		return Fail(errNoSession)
	default:
		return ex.session.SendStreamed(ctx, ex.Text)
	}
}

// errNoSession is reported when the backend returned neither a session nor an error.
var errNoSession = errors.New("no session")

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs exchanges against a Backend and applies their results to a
// Conversation. It owns the current Session and replaces it after every
// completed exchange with one created from the full history, so the session
// is always a function of the conversation so far.
//
// Begin and Apply mutate the conversation and must be called from the
// goroutine that owns it. Stream only reads the exchange and may run
// anywhere.
type Controller struct {
	conv    *model.Conversation
	backend Backend
	session Session
	logger  *slog.Logger

	state   State
	last    State // outcome of the most recent exchange
	failed  bool
	current *Exchange
}

// NewController creates a controller for conv. A nil logger discards logs.
func NewController(conv *model.Conversation, backend Backend, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		conv:    conv,
		backend: backend,
		logger:  logger.With("provider", backend.Name()),
		state:   StateIdle,
		last:    StateIdle,
	}
}

// Init creates the first session from the current history. The greeting is
// not part of the history, so a fresh conversation starts an empty session.
func (c *Controller) Init(ctx context.Context) error {
	session, err := c.backend.CreateSession(ctx, c.conv.History())
	if err != nil {
		c.logger.Warn("initial session creation failed, will retry on first message", "error", err)
		return err
	}
	c.session = session
	return nil
}

// Conversation returns the conversation the controller writes to.
func (c *Controller) Conversation() *model.Conversation {
	return c.conv
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// LastOutcome returns StateCompleted or StateFailed for the most recent
// finished exchange, or StateIdle if none has finished.
func (c *Controller) LastOutcome() State {
	return c.last
}

// Failed reports whether the error flag is set. It stays set until the next
// accepted submission.
func (c *Controller) Failed() bool {
	return c.failed
}

// Current returns the exchange in flight, or nil.
func (c *Controller) Current() *Exchange {
	return c.current
}

// HasSession reports whether a session is ready for the next exchange.
func (c *Controller) HasSession() bool {
	return c.session != nil
}

// Begin submits text. It returns false, changing nothing, when text is blank
// or another exchange is in flight. Otherwise it appends the user message
// and the placeholder, raises the in-flight guard, clears the error flag and
// returns the exchange to pass to Stream.
func (c *Controller) Begin(ctx context.Context, text string) (*Exchange, bool) {
	if c.conv.InFlight() || strings.TrimSpace(text) == "" {
		return nil, false
	}

	prior := c.conv.History()
	if !c.conv.AppendUser(text) {
		return nil, false
	}
	c.state = StateUserSubmitted
	c.failed = false
	c.conv.ClearDraft()

	c.conv.AppendPlaceholder()
	c.state = StatePlaceholderReserved
	c.conv.SetInFlight(true)

	ex := &Exchange{
		ID:      uuid.NewString(),
		Text:    text,
		prior:   prior,
		session: c.session,
		started: time.Now(),
	}

	if ex.session == nil {
		ex.session, ex.createErr = c.backend.CreateSession(ctx, model.WithoutEmptyReplies(prior))
		c.session = ex.session
	}

	c.current = ex
	c.state = StateStreaming
	c.logger.Info("exchange started", "exchange", ex.ID, "history", len(prior), "chars", len([]rune(text)))
	return ex, true
}

// Stream consumes the session's reply in a new goroutine and delivers
// cumulative texts on the returned channel, ending with exactly one
// EventCompleted or EventFailed. Events are sent in the order the remote
// stream produced them. The channel is closed afterwards, or early if ctx
// is cancelled.
func (c *Controller) Stream(ctx context.Context, ex *Exchange) <-chan Event {
	ch := make(chan Event, 16)

	go func() {
		defer close(ch)

		send := func(ev Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		fail := func(err error) {
			send(Event{Exchange: ex.ID, Kind: EventFailed, Err: &StreamFailure{Exchange: ex.ID, Err: err}})
		}

		var total strings.Builder
		for delta, err := range ex.reply(ctx) {
			if err != nil {
				fail(err)
				return
			}
			total.WriteString(delta)
			if !send(Event{Exchange: ex.ID, Kind: EventFragment, Text: total.String()}) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			fail(err)
			return
		}
		send(Event{Exchange: ex.ID, Kind: EventCompleted, Text: total.String()})
	}()

	return ch
}

// Apply applies one stream event to the conversation. Events for an
// exchange other than the current one are ignored.
func (c *Controller) Apply(ctx context.Context, ev Event) {
	ex := c.current
	if ex == nil || ev.Exchange != ex.ID {
		return
	}

	switch ev.Kind {
	case EventFragment:
		ex.fragments++
		if err := c.conv.ReplaceLastText(ev.Text); err != nil {
			c.logger.Error("replace streamed text", "exchange", ex.ID, "error", err)
		}

	case EventCompleted:
		if err := c.conv.ReplaceLastText(ev.Text); err != nil {
			c.logger.Error("replace streamed text", "exchange", ex.ID, "error", err)
		}
		c.rebuildSession(ctx, ex, ev.Text)
		c.finish(StateCompleted)
		c.logger.Info("exchange completed",
			"exchange", ex.ID,
			"fragments", ex.fragments,
			"chars", len([]rune(ev.Text)),
			"duration", time.Since(ex.started),
		)

	case EventFailed:
		c.rollback(ex)
		c.failed = true
		c.finish(StateFailed)
		c.logger.Error("exchange failed",
			"exchange", ex.ID,
			"fragments", ex.fragments,
			"duration", time.Since(ex.started),
			"error", ev.Err,
		)
	}
}

// Run performs a whole exchange synchronously. It returns ErrRejected when
// the submission is not accepted and a *StreamFailure when the exchange
// failed.
func (c *Controller) Run(ctx context.Context, text string) error {
	ex, ok := c.Begin(ctx, text)
	if !ok {
		return ErrRejected
	}
	var err error
	for ev := range c.Stream(ctx, ex) {
		c.Apply(ctx, ev)
		if ev.Kind == EventFailed {
			err = ev.Err
		}
	}
	if c.current == ex {
		// ctx was cancelled before a terminal event arrived.
		c.Apply(ctx, Event{Exchange: ex.ID, Kind: EventFailed, Err: &StreamFailure{Exchange: ex.ID, Err: ctx.Err()}})
		err = &StreamFailure{Exchange: ex.ID, Err: ctx.Err()}
	}
	return err
}

// rebuildSession replaces the session with one seeded by the prior history,
// the user message and the completed reply. On error the session is left
// empty and the next Begin creates one lazily.
func (c *Controller) rebuildSession(ctx context.Context, ex *Exchange, reply string) {
	full := make([]model.Message, 0, len(ex.prior)+2)
	full = append(full, ex.prior...)
	full = append(full, model.NewUserMessage(ex.Text), model.NewModelMessage(reply))

	session, err := c.backend.CreateSession(ctx, full)
	if err != nil {
		c.logger.Warn("session rebuild failed", "exchange", ex.ID, "error", err)
		c.session = nil
		return
	}
	c.session = session
}

// rollback removes the placeholder and the user message of a failed
// exchange, returning the conversation to its pre-submission state. The
// user's text goes back into the draft so it can be resent.
func (c *Controller) rollback(ex *Exchange) {
	if last, ok := c.conv.Last(); ok && last.Role == model.RoleModel {
		c.conv.DropLast()
	}
	if last, ok := c.conv.Last(); ok && last.IsUser() && last.Text() == ex.Text {
		c.conv.DropLast()
	}
	c.conv.SetDraft(ex.Text)
}

func (c *Controller) finish(outcome State) {
	c.last = outcome
	c.current = nil
	c.conv.SetInFlight(false)
	c.state = StateIdle
}
