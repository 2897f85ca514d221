// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
type StreamReader struct {
	reader      *bufio.Reader
	accumulator strings.Builder
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Content returns everything received so far.
func (s *StreamReader) Content() string {
	return s.accumulator.String()
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the done chunk arrives or the context is cancelled. A body
// that ends before the done chunk returns ErrIncompleteStream.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := s.readChunk()
		if err != nil {
			if err == io.EOF {
				return ErrIncompleteStream
			}
			return err
		}
		if chunk == nil {
			continue
		}

		callback(*chunk)
		if chunk.Done {
			return nil
		}
	}
}

// readChunk reads and parses a single line from the stream. It returns a
// nil chunk for blank or malformed lines.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var resp chatLine
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, nil
	}

	if resp.Error != "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: resp.Error}
	}

	if resp.Model != "" {
		s.model = resp.Model
	}
	s.accumulator.WriteString(resp.Message.Content)

	return &StreamChunk{
		Content:          resp.Message.Content,
		Done:             resp.Done,
		DoneReason:       resp.DoneReason,
		TotalDuration:    time.Duration(resp.TotalDuration),
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		Model:            s.model,
	}, nil
}
