// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer builds an httptest server that answers the version probe and
// the tags listing, and counts hits on /api/generate.
func fakeServer(t *testing.T, models []string, generate http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var generateHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(VersionResponse{Version: "0.1.test"})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		resp := ListModelsResponse{}
		for _, name := range models {
			resp.Models = append(resp.Models, ModelInfo{Name: name, Size: 1 << 30, ModifiedAt: time.Now()})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		generateHits.Add(1)
		if generate != nil {
			generate(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &generateHits
}

func newTestClient(baseURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		DefaultModel: "llama2",
	})
}

// unreachableURL points at a port nothing listens on.
func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestCheckStatus_ServerDown(t *testing.T) {
	client := newTestClient(unreachableURL(t))

	status := client.CheckStatus(context.Background(), "llama2")

	if status.Running {
		t.Error("Running should be false when the server is unreachable")
	}
	if status.ModelAvailable {
		t.Error("ModelAvailable should be false when the server is unreachable")
	}
}

func TestCheckStatus_ModelPresent(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2", "mistral"}, nil)
	client := newTestClient(srv.URL)

	status := client.CheckStatus(context.Background(), "llama2")

	if !status.Running {
		t.Error("Running should be true")
	}
	if !status.ModelAvailable {
		t.Error("ModelAvailable should be true for an installed model")
	}
}

func TestCheckStatus_ModelAbsent(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2", "mistral"}, nil)
	client := newTestClient(srv.URL)

	status := client.CheckStatus(context.Background(), "gemma")

	if !status.Running {
		t.Error("Running should be true")
	}
	if status.ModelAvailable {
		t.Error("ModelAvailable should be false for a missing model")
	}
}

func TestCheckRunning_Unreachable(t *testing.T) {
	client := newTestClient(unreachableURL(t))

	err := client.CheckRunning(context.Background())

	if !IsNotRunning(err) {
		t.Errorf("expected a not-running error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	srv, _ := fakeServer(t, nil, nil)
	client := newTestClient(srv.URL)

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != "0.1.test" {
		t.Errorf("Version() = %q, want %q", version, "0.1.test")
	}
}

// =============================================================================
// MODEL LISTING TESTS
// =============================================================================

func TestListModels(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2", "mistral"}, nil)
	client := newTestClient(srv.URL)

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("ListModels() returned %d models, want 2", len(models))
	}
	if models[0].Name != "llama2" {
		t.Errorf("models[0].Name = %q, want llama2", models[0].Name)
	}
}

func TestListModelsQuiet_Unreachable(t *testing.T) {
	client := newTestClient(unreachableURL(t))

	models := client.ListModelsQuiet(context.Background())

	if models == nil {
		t.Fatal("ListModelsQuiet should return an empty slice, not nil")
	}
	if len(models) != 0 {
		t.Errorf("expected empty slice, got %d models", len(models))
	}
}

func TestModelExists(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2"}, nil)
	client := newTestClient(srv.URL)

	if !client.ModelExists(context.Background(), "llama2") {
		t.Error("ModelExists should be true for llama2")
	}
	if client.ModelExists(context.Background(), "foo") {
		t.Error("ModelExists should be false for foo")
	}
}

func TestContainsModel_LatestTag(t *testing.T) {
	models := []ModelInfo{{Name: "llama2:latest"}}

	if !containsModel(models, "llama2") {
		t.Error("bare name should match the :latest tag")
	}
	if !containsModel(models, "llama2:latest") {
		t.Error("exact tag should match")
	}
	if containsModel(models, "llama2:13b") {
		t.Error("different tag should not match")
	}
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestGenerate_Buffered(t *testing.T) {
	srv, hits := fakeServer(t, []string{"llama2"}, func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("buffered request should have stream=false")
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Model:    req.Model,
			Response: "Hello there",
			Done:     true,
		})
	})
	client := newTestClient(srv.URL)

	resp, err := client.Generate(context.Background(), GenerateRequest{Model: "llama2", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Response != "Hello there" {
		t.Errorf("Response = %q, want %q", resp.Response, "Hello there")
	}
	if hits.Load() != 1 {
		t.Errorf("generate endpoint hit %d times, want 1", hits.Load())
	}
}

func TestGenerate_ModelMissingShortCircuits(t *testing.T) {
	srv, hits := fakeServer(t, []string{"llama2", "mistral"}, nil)
	client := newTestClient(srv.URL)

	_, err := client.Generate(context.Background(), GenerateRequest{Model: "foo", Prompt: "hi"})

	if !IsModelNotFound(err) {
		t.Fatalf("expected model-not-found, got %v", err)
	}
	if !strings.Contains(err.Error(), "foo") {
		t.Errorf("error should name the missing model, got %q", err.Error())
	}
	if hits.Load() != 0 {
		t.Errorf("generate endpoint hit %d times, want 0", hits.Load())
	}
}

func TestGenerateStream_ModelMissingShortCircuits(t *testing.T) {
	srv, hits := fakeServer(t, []string{"llama2", "mistral"}, nil)
	client := newTestClient(srv.URL)

	_, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "foo", Prompt: "hi"}, nil)

	if !IsModelNotFound(err) {
		t.Fatalf("expected model-not-found, got %v", err)
	}
	if !strings.Contains(err.Error(), "foo") {
		t.Errorf("error should name the missing model, got %q", err.Error())
	}
	if hits.Load() != 0 {
		t.Errorf("generate endpoint hit %d times, want 0", hits.Load())
	}
}

func TestGenerateStream_TokensInOrder(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2"}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"llama2","response":"Hel","done":false}` + "\n"))
		w.Write([]byte(`{"model":"llama2","response":"lo","done":true}` + "\n"))
	})
	client := newTestClient(srv.URL)

	var tokens []string
	full, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "llama2", Prompt: "hi"}, func(chunk StreamChunk) {
		if chunk.Response != "" {
			tokens = append(tokens, chunk.Response)
		}
	})
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}

	if full != "Hello" {
		t.Errorf("accumulated response = %q, want %q", full, "Hello")
	}
	if len(tokens) != 2 || tokens[0] != "Hel" || tokens[1] != "lo" {
		t.Errorf("tokens = %v, want [Hel lo]", tokens)
	}
}

func TestGenerateStream_IgnoresBytesAfterDone(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2"}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"complete","done":true}` + "\n"))
		w.Write([]byte(`{"response":" trailing","done":false}` + "\n"))
	})
	client := newTestClient(srv.URL)

	calls := 0
	full, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "llama2", Prompt: "hi"}, func(chunk StreamChunk) {
		calls++
	})
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}

	if full != "complete" {
		t.Errorf("accumulated response = %q, want %q", full, "complete")
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1 (resolution happens once)", calls)
	}
}

func TestGenerateStream_CancelledBeforeHeaders(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2"}, func(w http.ResponseWriter, r *http.Request) {
		// Hold the response open until the client gives up. The body must
		// be drained first: the server only detects the client closing the
		// connection (which fires r.Context) once the request body is read.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	client := newTestClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.GenerateStream(ctx, GenerateRequest{Model: "llama2", Prompt: "hi"}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsTimeout(err) {
		t.Error("a cancel must not be reported as a timeout")
	}
}

func TestGenerateStream_ServerError(t *testing.T) {
	srv, _ := fakeServer(t, []string{"llama2"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ServerError{Error: "out of memory"})
	})
	client := newTestClient(srv.URL)

	_, err := client.GenerateStream(context.Background(), GenerateRequest{Model: "llama2", Prompt: "hi"}, nil)
	if err == nil {
		t.Fatal("expected an error from a 500 response")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("error should carry the server message, got %q", err.Error())
	}
}

func TestGenerateStreamChan_DeliversErrorChunk(t *testing.T) {
	client := newTestClient(unreachableURL(t))

	ch := client.GenerateStreamChan(context.Background(), GenerateRequest{Model: "llama2", Prompt: "hi"})

	var last StreamChunk
	for chunk := range ch {
		last = chunk
	}

	if last.Error == nil {
		t.Fatal("expected a final chunk with Error set")
	}
	if !last.Done {
		t.Error("error chunk should be marked Done")
	}
}

// =============================================================================
// ERROR TYPE TESTS
// =============================================================================

func TestClientError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &ClientError{Type: ErrTypeTimeout, Message: "slow", Cause: cause}

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if !strings.Contains(err.Error(), "slow") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsNotRunning(ErrNotRunning) {
		t.Error("IsNotRunning(ErrNotRunning) should be true")
	}
	if !IsModelNotFound(ErrModelNotFound) {
		t.Error("IsModelNotFound(ErrModelNotFound) should be true")
	}
	if !IsTimeout(ErrTimeout) {
		t.Error("IsTimeout(ErrTimeout) should be true")
	}
	if IsNotRunning(ErrTimeout) {
		t.Error("IsNotRunning(ErrTimeout) should be false")
	}
}

// =============================================================================
// TYPE HELPER TESTS
// =============================================================================

func TestModelInfo_FormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1 << 10, "1 KB"},
		{1 << 20, "1 MB"},
		{1 << 30, "1 GB"},
		{3 << 30, "3 GB"},
	}

	for _, tc := range tests {
		m := &ModelInfo{Size: tc.size}
		if got := m.FormatSize(); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestGenerateResponse_TokensPerSecond(t *testing.T) {
	resp := &GenerateResponse{EvalCount: 100, EvalDuration: int64(time.Second)}

	got := resp.TokensPerSecond()
	if got < 99 || got > 101 {
		t.Errorf("TokensPerSecond() = %f, want ~100", got)
	}

	zero := &GenerateResponse{EvalCount: 100}
	if zero.TokensPerSecond() != 0 {
		t.Error("zero duration should yield 0 tok/s")
	}
}
