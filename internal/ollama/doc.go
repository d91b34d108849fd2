// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
//
// The package has two halves:
//
//   - Client: issues requests against the server base URL. It covers the
//     liveness probe (/api/version), model listing (/api/tags), and text
//     generation (/api/generate) in both buffered and streaming modes.
//
//   - StreamReader: decodes a streaming /api/generate response body. The
//     body is newline-delimited JSON; the reader buffers partial lines
//     across transport chunk boundaries, parses each complete line as an
//     independent record, and emits the incremental text through a
//     callback until the first record with done=true.
//
// All failures are typed. Callers branch with the Is* predicates
// (IsNotRunning, IsModelNotFound, IsTimeout) instead of matching error
// text:
//
//	client := ollama.NewClient()
//	text, err := client.GenerateStream(ctx, req, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Response)
//	})
//	if ollama.IsModelNotFound(err) {
//	    // suggest `ollama pull`
//	}
//
// The Client is stateless apart from its configuration and is safe for
// concurrent use. Nothing prevents concurrent generations at this layer;
// serializing them is a UI concern.
package ollama
