// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader delivers its payload in fixed-size fragments, deliberately
// misaligned with line boundaries, the way a TCP body arrives.
type chunkedReader struct {
	data  []byte
	pos   int
	chunk int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

// failingReader returns some data and then a transport error.
type failingReader struct {
	data []byte
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, errors.New("connection reset by peer")
}

func collectTokens(t *testing.T, r io.Reader) ([]string, string) {
	t.Helper()
	reader := NewStreamReader(r)
	var tokens []string
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Response != "" {
			tokens = append(tokens, chunk.Response)
		}
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return tokens, reader.Accumulated()
}

// =============================================================================
// DECODER TESTS
// =============================================================================

func TestStreamReader_BasicSequence(t *testing.T) {
	body := `{"response":"Hel","done":false}` + "\n" +
		`{"response":"lo","done":true}` + "\n"

	tokens, full := collectTokens(t, strings.NewReader(body))

	if len(tokens) != 2 || tokens[0] != "Hel" || tokens[1] != "lo" {
		t.Errorf("tokens = %v, want [Hel lo]", tokens)
	}
	if full != "Hello" {
		t.Errorf("Accumulated() = %q, want Hello", full)
	}
}

func TestStreamReader_SplitAcrossChunkBoundaries(t *testing.T) {
	// Records are reconstructed identically no matter how the transport
	// fragments the body, including fragments that split a record between
	// its opening and closing brace.
	body := `{"response":"The","done":false}` + "\n" +
		`{"response":" quick","done":false}` + "\n" +
		`{"response":" brown","done":false}` + "\n" +
		`{"response":" fox","done":true}` + "\n"

	wantTokens, wantFull := collectTokens(t, strings.NewReader(body))

	for _, chunkSize := range []int{1, 2, 3, 7, 16, 64} {
		tokens, full := collectTokens(t, &chunkedReader{data: []byte(body), chunk: chunkSize})

		if full != wantFull {
			t.Errorf("chunk=%d: accumulated %q, want %q", chunkSize, full, wantFull)
		}
		if len(tokens) != len(wantTokens) {
			t.Fatalf("chunk=%d: %d tokens, want %d", chunkSize, len(tokens), len(wantTokens))
		}
		for i := range tokens {
			if tokens[i] != wantTokens[i] {
				t.Errorf("chunk=%d: token[%d] = %q, want %q", chunkSize, i, tokens[i], wantTokens[i])
			}
		}
	}
}

func TestStreamReader_SkipsMalformedLines(t *testing.T) {
	body := `{"response":"ok","done":false}` + "\n" +
		`{"respon` + "\n" + // truncated record
		`not json at all` + "\n" +
		`{"response":"!","done":true}` + "\n"

	tokens, full := collectTokens(t, strings.NewReader(body))

	if len(tokens) != 2 {
		t.Fatalf("tokens = %v, want 2 entries", tokens)
	}
	if full != "ok!" {
		t.Errorf("Accumulated() = %q, want ok!", full)
	}
}

func TestStreamReader_SkipsEmptyLines(t *testing.T) {
	body := "\n\n" + `{"response":"a","done":false}` + "\n\n" +
		`{"response":"b","done":true}` + "\n"

	tokens, full := collectTokens(t, strings.NewReader(body))

	if len(tokens) != 2 {
		t.Fatalf("tokens = %v, want 2 entries", tokens)
	}
	if full != "ab" {
		t.Errorf("Accumulated() = %q", full)
	}
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	body := `{"response":"a","done":false}` + "\n" +
		`{"response":"b","done":true}` // no trailing newline

	_, full := collectTokens(t, strings.NewReader(body))

	if full != "ab" {
		t.Errorf("Accumulated() = %q, want ab", full)
	}
}

func TestStreamReader_StopsAtFirstDone(t *testing.T) {
	body := `{"response":"first","done":true}` + "\n" +
		`{"response":"second","done":true}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	calls := 0
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		calls++
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
	if reader.Accumulated() != "first" {
		t.Errorf("Accumulated() = %q, want first", reader.Accumulated())
	}
	if !reader.DoneSeen() {
		t.Error("DoneSeen() should be true")
	}
}

func TestStreamReader_EOFWithoutDone(t *testing.T) {
	body := `{"response":"partial","done":false}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	err := reader.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if reader.Accumulated() != "partial" {
		t.Errorf("Accumulated() = %q", reader.Accumulated())
	}
	if reader.DoneSeen() {
		t.Error("DoneSeen() should be false for a truncated stream")
	}
	if reader.State() != StateDone {
		t.Errorf("State() = %v, want done", reader.State())
	}
}

func TestStreamReader_FinalChunkCarriesStats(t *testing.T) {
	body := `{"response":"x","done":true,"eval_count":42,"eval_duration":1000000000,"total_duration":2000000000}` + "\n"

	reader := NewStreamReader(strings.NewReader(body))
	var last StreamChunk
	if err := reader.Process(context.Background(), func(chunk StreamChunk) { last = chunk }); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if last.CompletionTokens != 42 {
		t.Errorf("CompletionTokens = %d, want 42", last.CompletionTokens)
	}
	if last.EvalDuration.Seconds() != 1 {
		t.Errorf("EvalDuration = %v, want 1s", last.EvalDuration)
	}
}

// =============================================================================
// STATE MACHINE TESTS
// =============================================================================

func TestStreamReader_StateTransitions(t *testing.T) {
	reader := NewStreamReader(strings.NewReader(`{"response":"a","done":true}` + "\n"))

	if reader.State() != StateAwaitingFirstByte {
		t.Errorf("initial state = %v, want awaiting", reader.State())
	}

	if err := reader.Process(context.Background(), nil); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if reader.State() != StateDone {
		t.Errorf("final state = %v, want done", reader.State())
	}
}

func TestStreamReader_TransportErrorFails(t *testing.T) {
	reader := NewStreamReader(&failingReader{data: []byte(`{"response":"a","done":false}` + "\n")})

	err := reader.Process(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error from the failing transport")
	}
	if reader.State() != StateFailed {
		t.Errorf("state = %v, want failed", reader.State())
	}
	// Tokens before the failure still accumulated.
	if reader.Accumulated() != "a" {
		t.Errorf("Accumulated() = %q, want a", reader.Accumulated())
	}
}

func TestStreamReader_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(`{"response":"a","done":true}` + "\n"))
	err := reader.Process(ctx, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if reader.State() != StateFailed {
		t.Errorf("state = %v, want failed", reader.State())
	}
}

func TestStreamState_String(t *testing.T) {
	cases := map[StreamState]string{
		StateAwaitingFirstByte: "awaiting",
		StateReceiving:         "receiving",
		StateDone:              "done",
		StateFailed:            "failed",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Errorf("%d.String() = %q, want %q", state, state.String(), want)
		}
	}
}
