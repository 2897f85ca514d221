// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jeranaias/hiwar/internal/model"
)

// =============================================================================
// REMOTE CHAT CAPABILITY
// =============================================================================

// Session is a remote chat session bound to a fixed history snapshot.
type Session interface {
	// SendStreamed sends text and returns the reply as a lazy, finite,
	// non-restartable sequence of text deltas. A failure is reported as a
	// single terminal element carrying a non-nil error.
	SendStreamed(ctx context.Context, text string) iter.Seq2[string, error]
}

// Backend creates sessions. CreateSession is a pure factory: it does not
// validate the history, problems surface on the first SendStreamed.
type Backend interface {
	Name() string
	CreateSession(ctx context.Context, history []model.Message) (Session, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrRejected is returned by Controller.Run when the submission was not
// accepted (blank text or an exchange already in flight).
var ErrRejected = errors.New("submission rejected")

// StreamFailure wraps any error raised while creating or consuming a remote
// stream. It is the only error an exchange reports.
type StreamFailure struct {
	Exchange string
	Err      error
}

// Error implements the error interface.
func (e *StreamFailure) Error() string {
	return fmt.Sprintf("stream failure (exchange %s): %v", e.Exchange, e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamFailure) Unwrap() error {
	return e.Err
}

// =============================================================================
// CALLBACK ADAPTER
// =============================================================================

// FromCallback adapts a streaming call that reports deltas through a
// callback into a lazy sequence. The callback must be invoked synchronously
// on the goroutine that called run. When the consumer stops early the
// context passed to run is cancelled and later deltas are discarded.
func FromCallback(ctx context.Context, run func(ctx context.Context, emit func(delta string)) error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		err := run(ctx, func(delta string) {
			if stopped {
				return
			}
			if !yield(delta, nil) {
				stopped = true
				cancel()
			}
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

// Fail returns a sequence whose only element is err.
func Fail(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
