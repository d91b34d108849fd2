// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/crtchat/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the root crtchat configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	UI     UIConfig     `toml:"ui"`
}

// ServerConfig controls the Ollama connection.
type ServerConfig struct {
	// URL is the base URL of the Ollama server.
	URL string `toml:"url"`

	// Model is the default model used for generation.
	Model string `toml:"model"`

	// TimeoutSecs is the request timeout for non-streaming calls.
	// Streaming requests are bounded by context, not this timeout.
	TimeoutSecs int `toml:"timeout_secs"`

	// PollIntervalSecs is how often the UI re-probes server health.
	PollIntervalSecs int `toml:"poll_interval_secs"`

	// AutoStart controls whether crtchat attempts to launch a local
	// ollama serve process when the server is not running.
	AutoStart bool `toml:"auto_start"`
}

// UIConfig controls presentation.
type UIConfig struct {
	// Theme selects the phosphor palette: "green", "amber", or "white".
	Theme string `toml:"theme"`

	// AvatarEnabled toggles the ASCII avatar pane.
	AvatarEnabled bool `toml:"avatar_enabled"`

	// MarkdownEnabled toggles glamour rendering of assistant replies.
	MarkdownEnabled bool `toml:"markdown_enabled"`

	// ShowStats toggles the per-response token statistics line.
	ShowStats bool `toml:"show_stats"`

	// MaxFPS caps streaming UI refreshes per second.
	MaxFPS int `toml:"max_fps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Defaults, clamping bounds.
const (
	DefaultServerURL    = "http://localhost:11434"
	DefaultModel        = "llama3.2"
	DefaultTimeoutSecs  = 30
	DefaultPollSecs     = 10
	DefaultTheme        = "green"
	DefaultMaxFPS       = 30
	minTimeoutSecs      = 1
	maxTimeoutSecs      = 600
	minPollSecs         = 2
	maxPollSecs         = 300
	minMaxFPS           = 1
	maxMaxFPS           = 120
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:              DefaultServerURL,
			Model:            DefaultModel,
			TimeoutSecs:      DefaultTimeoutSecs,
			PollIntervalSecs: DefaultPollSecs,
			AutoStart:        true,
		},
		UI: UIConfig{
			Theme:           DefaultTheme,
			AvatarEnabled:   true,
			MarkdownEnabled: true,
			ShowStats:       true,
			MaxFPS:          DefaultMaxFPS,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the crtchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".crtchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config path.
// A missing file is not an error: defaults are returned. Environment
// overrides are applied last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile loads configuration from an explicit TOML path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return Default(), fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.Validate()
	return cfg, nil
}

// ApplyEnvOverrides applies CRTCHAT_* environment variables over the
// loaded values. Unset variables leave the config untouched.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CRTCHAT_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("CRTCHAT_MODEL"); v != "" {
		c.Server.Model = v
	}
	if v := os.Getenv("CRTCHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("CRTCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// Validate clamps out-of-range values back to safe defaults rather than
// failing. A bad config file should degrade, not prevent startup.
func (c *Config) Validate() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}
	if c.Server.Model == "" {
		c.Server.Model = DefaultModel
	}
	if c.Server.TimeoutSecs < minTimeoutSecs || c.Server.TimeoutSecs > maxTimeoutSecs {
		c.Server.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.Server.PollIntervalSecs < minPollSecs || c.Server.PollIntervalSecs > maxPollSecs {
		c.Server.PollIntervalSecs = DefaultPollSecs
	}
	switch c.UI.Theme {
	case "green", "amber", "white":
	default:
		c.UI.Theme = DefaultTheme
	}
	if c.UI.MaxFPS < minMaxFPS || c.UI.MaxFPS > maxMaxFPS {
		c.UI.MaxFPS = DefaultMaxFPS
	}
}

// Save writes the configuration to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the configuration to an explicit TOML path.
// The write is atomic so a crash never leaves a half-written config.
func SaveFile(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# crtchat configuration file")
	fmt.Fprintln(&buf, "# Generated by crtchat - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
