// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM STATE
// =============================================================================

// StreamState tracks the lifecycle of a streaming decode.
type StreamState int

const (
	StateAwaitingFirstByte StreamState = iota // No data received yet
	StateReceiving                            // At least one record decoded
	StateDone                                 // done=true seen or body exhausted
	StateFailed                               // Transport or context error
)

// String returns the display name of the state.
func (s StreamState) String() string {
	switch s {
	case StateAwaitingFirstByte:
		return "awaiting"
	case StateReceiving:
		return "receiving"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a newline-delimited JSON generation stream.
//
// The underlying transport delivers the body in arbitrary fragments that
// need not align with record boundaries. The bufio reader carries the
// partial trailing line across deliveries, so a record split across two
// reads is reassembled before parsing rather than dropped. Malformed
// lines are skipped without aborting the stream.
type StreamReader struct {
	reader *bufio.Reader
	// strings.Builder keeps accumulation linear in total output size
	accumulator strings.Builder
	state       StreamState
	tokenCount  int
	model       string
	doneSeen    bool
}

// NewStreamReader creates a stream reader over a response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
		state:  StateAwaitingFirstByte,
	}
}

// Process reads the stream and calls the callback for each decoded chunk.
// It returns after the first done=true record; anything the server sends
// beyond that point is ignored. A body that ends without a done record
// resolves with whatever accumulated. Context cancellation and transport
// errors move the reader to StateFailed and are returned.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			s.state = StateFailed
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					s.state = StateDone
					return nil
				}
				s.state = StateFailed
				return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
			}

			if chunk == nil {
				continue
			}

			s.state = StateReceiving
			if callback != nil {
				callback(*chunk)
			}
			if chunk.Done {
				s.doneSeen = true
				s.state = StateDone
				return nil
			}
		}
	}
}

// readChunk reads one complete line and parses it. Returns (nil, nil) for
// empty or malformed lines, which callers skip.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// A final record may arrive without a trailing newline; fall
		// through and parse what we have.
		if len(line) == 0 {
			return nil, err
		}
	}

	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return nil, nil
	}

	var record struct {
		Model              string    `json:"model"`
		CreatedAt          time.Time `json:"created_at"`
		Response           string    `json:"response"`
		Done               bool      `json:"done"`
		DoneReason         string    `json:"done_reason,omitempty"`
		TotalDuration      int64     `json:"total_duration,omitempty"`
		PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`
		EvalCount          int       `json:"eval_count,omitempty"`
		EvalDuration       int64     `json:"eval_duration,omitempty"`
	}
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	if record.Model != "" {
		s.model = record.Model
	}

	if record.Response != "" {
		s.accumulator.WriteString(record.Response)
		s.tokenCount++
	}

	chunk := &StreamChunk{
		Response:   record.Response,
		Done:       record.Done,
		DoneReason: record.DoneReason,
		Model:      s.model,
	}

	if record.Done {
		chunk.TotalDuration = time.Duration(record.TotalDuration)
		chunk.EvalDuration = time.Duration(record.EvalDuration)
		chunk.PromptTokens = record.PromptEvalCount
		chunk.CompletionTokens = record.EvalCount
	}

	return chunk, nil
}

// Accumulated returns all response text decoded so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// TokenCount returns the number of non-empty chunks decoded.
func (s *StreamReader) TokenCount() int {
	return s.tokenCount
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// State returns the reader's current lifecycle state.
func (s *StreamReader) State() StreamState {
	return s.state
}

// DoneSeen reports whether a done=true record terminated the stream, as
// opposed to the body simply ending.
func (s *StreamReader) DoneSeen() bool {
	return s.doneSeen
}
