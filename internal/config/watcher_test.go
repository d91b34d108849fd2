// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, path, model string) {
	t.Helper()
	content := "[server]\nmodel = \"" + model + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestWatchFile_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "llama3.2")

	changes := make(chan *Config, 4)
	w, err := WatchFile(path, func(cfg *Config) {
		changes <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	writeTestConfig(t, path, "mistral")

	select {
	case cfg := <-changes:
		require.Equal(t, "mistral", cfg.Server.Model)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload callback after config write")
	}
}

func TestWatchFile_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "llama3.2")

	changes := make(chan *Config, 4)
	w, err := WatchFile(path, func(cfg *Config) {
		changes <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))

	select {
	case <-changes:
		t.Fatal("unrelated file write should not trigger a reload")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatchFile_RenameReplace(t *testing.T) {
	// Editors that save via temp file + rename replace the inode; the
	// directory watch must still pick up the change.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "llama3.2")

	changes := make(chan *Config, 4)
	w, err := WatchFile(path, func(cfg *Config) {
		changes <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	tmp := filepath.Join(dir, "config.toml.tmp")
	writeTestConfig(t, tmp, "phi3")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case cfg := <-changes:
		require.Equal(t, "phi3", cfg.Server.Model)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload callback after rename replace")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "llama3.2")

	w, err := WatchFile(path, func(cfg *Config) {})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
