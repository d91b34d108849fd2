// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and
// messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message. Keeping it a typed constant
// set (rather than a free-form string) lets rendering switch over roles
// exhaustively.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "YOU"
	case RoleAssistant:
		return "UNIT-01"
	case RoleSystem:
		return "SYS"
	default:
		return strings.ToUpper(string(r))
	}
}

// Valid reports whether the role is one of the known constants.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Streaming state. streamContent collects tokens while IsStreaming
	// is true and is merged into Content on FinishStreaming.
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// Generation metrics for assistant messages.
	TokenCount    int           `json:"token_count,omitempty"`
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewStreamingMessage creates an empty assistant message that will be
// filled token by token.
func NewStreamingMessage() *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// AppendToken adds streamed content to the message.
func (m *Message) AppendToken(token string) {
	m.streamContent.WriteString(token)
	m.TokenCount++
}

// DisplayContent returns what should be rendered right now: the partial
// stream while streaming, the final content afterwards.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// FinishStreaming merges the streamed tokens into Content and clears the
// streaming state.
func (m *Message) FinishStreaming() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// IsEmpty reports whether the message has any visible content.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.DisplayContent()) == ""
}

// =============================================================================
// STATISTICS
// =============================================================================

// Statistics tracks timing for one generation.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time
	TokenCount     int
}

// NewStatistics creates statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFirstToken marks the arrival of the first token. Safe to call
// more than once; only the first call records.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
	}
}

// Finalize closes the statistics with the completed token count.
func (s *Statistics) Finalize(tokenCount int) {
	s.EndTime = time.Now()
	s.TokenCount = tokenCount
}

// TTFT returns the time to first token.
func (s *Statistics) TTFT() time.Duration {
	if s.FirstTokenTime.IsZero() {
		return 0
	}
	return s.FirstTokenTime.Sub(s.StartTime)
}

// TokensPerSecond returns the generation rate over the whole run.
func (s *Statistics) TokensPerSecond() float64 {
	if s.EndTime.IsZero() || s.TokenCount == 0 {
		return 0
	}
	seconds := s.EndTime.Sub(s.StartTime).Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(s.TokenCount) / seconds
}
