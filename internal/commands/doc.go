// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
//
// Input starting with "/" is parsed by Parser against a Registry of
// Command definitions. Each handler returns a tea.Cmd producing one of
// the message types defined in handlers.go; the chat model reacts to
// those messages. Commands never mutate UI state directly.
package commands
