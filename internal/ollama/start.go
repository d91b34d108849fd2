// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
package ollama

import (
	"context"
	"time"
)

// StartServer attempts to start the Ollama server if it is not already
// running. The launch itself is platform-specific (see start_unix.go and
// start_windows.go).
func (c *Client) StartServer(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}
	return c.startServerProcess(ctx)
}

// EnsureRunning checks if the server is running and starts it if not.
func (c *Client) EnsureRunning(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}
	return c.StartServer(ctx)
}

// waitUntilRunning polls the liveness probe until the server answers or
// the deadline passes.
func (c *Client) waitUntilRunning(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		if err := c.CheckRunning(ctx); err == nil {
			return nil
		}
	}
	return &ClientError{
		Type:    ErrTypeTimeout,
		Message: "ollama serve did not become ready in time",
	}
}
