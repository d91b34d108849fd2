// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI pieces for the crtchat TUI:
// the status bar, the welcome banner, and the chroma-backed code block
// renderer used when full markdown rendering is disabled.
package components
