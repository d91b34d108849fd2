// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ollama"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that streaming has begun for a message.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg delivers a new token from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamCompleteMsg signals that streaming has finished.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
}

// StreamErrorMsg signals an error during streaming.
type StreamErrorMsg struct {
	MessageID string
	Error     error
}

// StreamCancelledMsg signals the user aborted the stream.
type StreamCancelledMsg struct {
	MessageID string
}

// StreamTickMsg drives the flush of the streaming buffer into the view.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// SERVER STATUS MESSAGES
// =============================================================================

// StatusMsg reports the result of a health probe.
type StatusMsg struct {
	Status ollama.ConnectionStatus
}

// StatusTickMsg fires the periodic health probe.
type StatusTickMsg struct {
	Time time.Time
}

// ModelSwitchedMsg confirms the active model changed.
type ModelSwitchedMsg struct {
	Model string
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// AvatarTickMsg advances the avatar animation.
type AvatarTickMsg struct {
	Time time.Time
}

// ConfigReloadedMsg carries the hot-reloadable settings from a config
// file change. The server URL is fixed for the life of the client and
// is deliberately absent.
type ConfigReloadedMsg struct {
	Model            string
	Theme            string
	PollIntervalSecs int
}
