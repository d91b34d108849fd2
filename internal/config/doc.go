// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages crtchat configuration.
//
// Configuration lives in ~/.crtchat/config.toml and covers the Ollama
// server connection (URL, default model, timeouts, health poll interval)
// and the UI (theme, avatar, markdown rendering). Missing or malformed
// config falls back to defaults so the app always starts.
//
// A process-wide singleton is available through Global/SetGlobal, and
// Watch provides fsnotify-based hot reload of the config file.
package config
