// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
package ollama

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// findServerExecutable searches for the ollama binary in PATH and the
// usual install locations on Unix and macOS.
func findServerExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	candidates := []string{
		"/usr/local/bin/ollama",
		"/usr/bin/ollama",
		"/opt/ollama/ollama",
		"/Applications/Ollama.app/Contents/Resources/ollama",
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", "ollama"),
			filepath.Join(home, "bin", "ollama"),
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", &ClientError{
		Type:    ErrTypeNotRunning,
		Message: "ollama executable not found in PATH or common install locations",
	}
}

// startServerProcess launches `ollama serve` detached from our process
// group so it survives the chat client exiting.
func (c *Client) startServerProcess(ctx context.Context) error {
	path, err := findServerExecutable()
	if err != nil {
		return err
	}

	cmd := exec.Command(path, "serve")
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to start ollama serve", Cause: err}
	}
	// Detach; the server owns its own lifetime from here.
	go cmd.Wait()

	return c.waitUntilRunning(ctx, 15*time.Second)
}
