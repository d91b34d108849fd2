// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for the /api/generate endpoint.
type GenerateRequest struct {
	Model   string   `json:"model"`             // Model name (e.g., "llama2")
	Prompt  string   `json:"prompt"`            // Flattened conversation prompt
	Stream  bool     `json:"stream"`            // Enable streaming
	System  string   `json:"system,omitempty"`  // System prompt
	Options *Options `json:"options,omitempty"` // Sampling parameters
	Raw     bool     `json:"raw,omitempty"`     // Skip prompt templating
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64  `json:"temperature,omitempty"` // 0.0-2.0, default 0.8
	TopP        float64  `json:"top_p,omitempty"`       // 0.0-1.0, default 0.9
	TopK        int      `json:"top_k,omitempty"`       // Default 40
	Seed        int      `json:"seed,omitempty"`        // Random seed
	NumPredict  int      `json:"num_predict,omitempty"` // Max tokens, -1 unlimited
	Stop        []string `json:"stop,omitempty"`        // Stop sequences
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is one record from /api/generate. In buffered mode the
// endpoint returns exactly one; in streaming mode the body is a sequence
// of these, newline-delimited, ending with done=true.
type GenerateResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           string    `json:"response"`
	Done               bool      `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`       // nanoseconds
	LoadDuration       int64     `json:"load_duration,omitempty"`        // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`    // tokens in prompt
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"` // nanoseconds
	EvalCount          int       `json:"eval_count,omitempty"`           // tokens generated
	EvalDuration       int64     `json:"eval_duration,omitempty"`        // nanoseconds
}

// TokensPerSecond calculates the generation speed from a response.
func (r *GenerateResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	seconds := float64(r.EvalDuration) / 1e9
	return float64(r.EvalCount) / seconds
}

// TotalTime returns the total generation time.
func (r *GenerateResponse) TotalTime() time.Duration {
	return time.Duration(r.TotalDuration)
}

// VersionResponse is the response from /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelInfo describes one locally installed model.
type ModelInfo struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest,omitempty"`
	Details    ModelDetails `json:"details,omitempty"`
}

// ModelDetails contains detailed information about a model.
type ModelDetails struct {
	Format            string `json:"format"`
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

// ListModelsResponse is the response from /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// FormatSize formats the model size in human-readable form.
func (m *ModelInfo) FormatSize() string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)

	switch {
	case m.Size >= gb:
		return formatSize1(float64(m.Size)/gb) + " GB"
	case m.Size >= mb:
		return formatSize1(float64(m.Size)/mb) + " MB"
	case m.Size >= kb:
		return formatSize1(float64(m.Size)/kb) + " KB"
	default:
		return formatSize1(float64(m.Size)) + " B"
	}
}

// formatSize1 formats a float with at most one decimal place.
func formatSize1(f float64) string {
	whole := int64(f)
	frac := int64((f - float64(whole)) * 10)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// =============================================================================
// STATUS TYPES
// =============================================================================

// ConnectionStatus reports server liveness and whether a given model is
// installed. It is derived fresh on each CheckStatus call and never cached.
type ConnectionStatus struct {
	Running        bool
	ModelAvailable bool
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is one decoded record delivered to the streaming callback.
type StreamChunk struct {
	// Response is the incremental text of this chunk.
	Response string

	// Done marks the final record of the stream.
	Done       bool
	DoneReason string

	// Model is the model name reported by the server.
	Model string

	// Generation statistics, populated only on the final chunk.
	TotalDuration    time.Duration
	EvalDuration     time.Duration
	PromptTokens     int
	CompletionTokens int

	// Error set when the chunk represents a stream failure (channel API).
	Error error
}

// =============================================================================
// WIRE ERROR TYPE
// =============================================================================

// ServerError is the error payload the Ollama API returns on non-200
// responses.
type ServerError struct {
	Error string `json:"error"`
}
