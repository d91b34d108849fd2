// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and
// messages.
//
// Everything here is transient: messages and conversations live for the
// duration of the process and are discarded on exit. There is no
// persistence layer by design.
package model
