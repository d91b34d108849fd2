// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal interface for crtchat.
//
// Two modes are provided:
//   - an interactive line-mode REPL with input history, for terminals
//     that cannot host the full-screen UI or when -plain is passed
//   - a one-shot ask mode that sends a single prompt and prints the
//     response, suitable for piping and scripting
//
// Markdown rendering and colors are only used when stdout is a TTY so
// piped output stays clean.
package cli
