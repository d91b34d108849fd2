// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main crtchat TUI view.
//
// The package follows the Bubble Tea Model/Update/View split:
//
//   - model.go holds the Model struct and constructors
//   - update.go routes messages and drives the streaming state machine
//   - view.go renders the chat transcript, avatar pane, input, status bar
//   - messages.go is the tea.Msg catalog
//   - streaming.go batches tokens so rendering stays at a sane frame rate
//   - commands.go builds the tea.Cmd closures that talk to Ollama
//
// Streaming runs in a background goroutine that delivers tokens through
// program.Send; the Update loop only ever touches model state on the
// Bubble Tea thread, so only one generation is in flight at a time.
package chat
