// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("URL = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.Server.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Server.Model, DefaultModel)
	}
	if cfg.Server.TimeoutSecs != DefaultTimeoutSecs {
		t.Errorf("TimeoutSecs = %d, want %d", cfg.Server.TimeoutSecs, DefaultTimeoutSecs)
	}
	if cfg.Server.PollIntervalSecs != DefaultPollSecs {
		t.Errorf("PollIntervalSecs = %d, want %d", cfg.Server.PollIntervalSecs, DefaultPollSecs)
	}
	if cfg.UI.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", cfg.UI.Theme, DefaultTheme)
	}
	if !cfg.UI.AvatarEnabled {
		t.Error("AvatarEnabled should default to true")
	}
}

func TestValidate_ClampsOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = -5
	cfg.Server.PollIntervalSecs = 100000
	cfg.UI.MaxFPS = 0
	cfg.UI.Theme = "plasma"

	cfg.Validate()

	if cfg.Server.TimeoutSecs != DefaultTimeoutSecs {
		t.Errorf("TimeoutSecs = %d, want clamped to %d", cfg.Server.TimeoutSecs, DefaultTimeoutSecs)
	}
	if cfg.Server.PollIntervalSecs != DefaultPollSecs {
		t.Errorf("PollIntervalSecs = %d, want clamped to %d", cfg.Server.PollIntervalSecs, DefaultPollSecs)
	}
	if cfg.UI.MaxFPS != DefaultMaxFPS {
		t.Errorf("MaxFPS = %d, want clamped to %d", cfg.UI.MaxFPS, DefaultMaxFPS)
	}
	if cfg.UI.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want clamped to %q", cfg.UI.Theme, DefaultTheme)
	}
}

func TestValidate_KeepsValidValues(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 120
	cfg.UI.Theme = "amber"

	cfg.Validate()

	if cfg.Server.TimeoutSecs != 120 {
		t.Errorf("TimeoutSecs = %d, want 120", cfg.Server.TimeoutSecs)
	}
	if cfg.UI.Theme != "amber" {
		t.Errorf("Theme = %q, want amber", cfg.UI.Theme)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Server.Model = "mistral"
	cfg.Server.TimeoutSecs = 45
	cfg.UI.Theme = "white"
	cfg.UI.ShowStats = false

	if err := SaveFile(cfg, path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if loaded.Server.Model != "mistral" {
		t.Errorf("Model = %q, want mistral", loaded.Server.Model)
	}
	if loaded.Server.TimeoutSecs != 45 {
		t.Errorf("TimeoutSecs = %d, want 45", loaded.Server.TimeoutSecs)
	}
	if loaded.UI.Theme != "white" {
		t.Errorf("Theme = %q, want white", loaded.UI.Theme)
	}
	if loaded.UI.ShowStats {
		t.Error("ShowStats should be false after roundtrip")
	}
}

func TestSaveFile_Permissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := SaveFile(Default(), path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile on missing file should not error, got %v", err)
	}
	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("missing file should yield defaults, got URL %q", cfg.Server.URL)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("this is { not toml"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFile(path)
	if err == nil {
		t.Error("expected error for malformed TOML")
	}
	if cfg == nil || cfg.Server.URL != DefaultServerURL {
		t.Error("malformed file should still yield defaults")
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("CRTCHAT_URL", "http://example.com:11434")
	t.Setenv("CRTCHAT_MODEL", "phi3")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.URL != "http://example.com:11434" {
		t.Errorf("URL = %q, want env override", cfg.Server.URL)
	}
	if cfg.Server.Model != "phi3" {
		t.Errorf("Model = %q, want phi3", cfg.Server.Model)
	}
}

func TestGlobalConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	SetGlobal(Default())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = Global().Server.Model
		}()
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
	}
	wg.Wait()
}

func TestWatchFile_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := SaveFile(Default(), path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	changed := make(chan *Config, 1)
	w, err := WatchFile(path, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("WatchFile failed: %v", err)
	}
	defer w.Close()

	updated := Default()
	updated.Server.Model = "gemma"
	if err := SaveFile(updated, path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.Model != "gemma" {
			t.Errorf("reloaded Model = %q, want gemma", cfg.Server.Model)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_CloseIdempotent_NoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	w, err := WatchFile(path, func(*Config) {})
	if err != nil {
		t.Fatalf("WatchFile failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
