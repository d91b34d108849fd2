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
// CONVERSATION TYPE
// =============================================================================

// Conversation is the in-memory ordered history of one chat session.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`

	// SystemPrompt is prepended when flattening history for generation.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Add appends a message to the history.
func (c *Conversation) Add(msg *Message) {
	c.Messages = append(c.Messages, msg)
}

// Last returns the most recent message, or nil when empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// FindByID returns the message with the given ID, or nil.
func (c *Conversation) FindByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Clear drops the history while keeping the conversation identity.
func (c *Conversation) Clear() {
	c.Messages = nil
}

// =============================================================================
// PROMPT FLATTENING
// =============================================================================

// Prompt flattens the conversation into a single prompt string for the
// /api/generate endpoint. System entries (status notices, command
// output) are excluded: they are UI artifacts, not model context.
func (c *Conversation) Prompt() string {
	var b strings.Builder

	for _, msg := range c.Messages {
		if msg.IsStreaming || msg.Role == RoleSystem {
			continue
		}
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	b.WriteString("Assistant:")
	return b.String()
}
