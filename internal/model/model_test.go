// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "YOU"},
		{RoleAssistant, "UNIT-01"},
		{RoleSystem, "SYS"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("%s.DisplayName() = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("tool").Valid() {
		t.Error("unknown role should not be valid")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_HasIdentity(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.ID == "" {
		t.Error("ID should be generated")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := NewUserMessage("hello")
	if other.ID == msg.ID {
		t.Error("IDs should be unique per message")
	}
}

func TestMessage_StreamingLifecycle(t *testing.T) {
	msg := NewStreamingMessage()

	if !msg.IsStreaming {
		t.Fatal("new streaming message should be streaming")
	}

	msg.AppendToken("Hel")
	msg.AppendToken("lo")

	if msg.DisplayContent() != "Hello" {
		t.Errorf("DisplayContent() = %q, want Hello", msg.DisplayContent())
	}
	if msg.Content != "" {
		t.Error("Content should stay empty until the stream finishes")
	}
	if msg.TokenCount != 2 {
		t.Errorf("TokenCount = %d, want 2", msg.TokenCount)
	}

	msg.FinishStreaming()

	if msg.IsStreaming {
		t.Error("IsStreaming should be false after FinishStreaming")
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want Hello", msg.Content)
	}
	if msg.DisplayContent() != "Hello" {
		t.Errorf("DisplayContent() = %q after finish", msg.DisplayContent())
	}
}

func TestMessage_IsEmpty(t *testing.T) {
	if !NewUserMessage("   ").IsEmpty() {
		t.Error("whitespace-only message should be empty")
	}
	if NewUserMessage("hi").IsEmpty() {
		t.Error("message with content should not be empty")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndFind(t *testing.T) {
	conv := NewConversation()
	msg := NewUserMessage("hello")
	conv.Add(msg)
	conv.Add(NewSystemMessage("server offline"))

	if conv.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", conv.Len())
	}
	if conv.FindByID(msg.ID) != msg {
		t.Error("FindByID should locate the message")
	}
	if conv.FindByID("nope") != nil {
		t.Error("FindByID with unknown ID should return nil")
	}
	if conv.Last().Role != RoleSystem {
		t.Error("Last() should return the most recent message")
	}
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("hello"))
	id := conv.ID

	conv.Clear()

	if conv.Len() != 0 {
		t.Error("Clear should drop all messages")
	}
	if conv.ID != id {
		t.Error("Clear should keep the conversation identity")
	}
}

func TestConversation_PromptFlattening(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("What is Go?"))
	answer := NewMessage(RoleAssistant, "A programming language.")
	conv.Add(answer)
	conv.Add(NewSystemMessage("connection restored")) // excluded
	conv.Add(NewUserMessage("Who made it?"))

	prompt := conv.Prompt()

	if !strings.Contains(prompt, "User: What is Go?") {
		t.Errorf("prompt missing first user turn: %q", prompt)
	}
	if !strings.Contains(prompt, "Assistant: A programming language.") {
		t.Errorf("prompt missing assistant turn: %q", prompt)
	}
	if strings.Contains(prompt, "connection restored") {
		t.Error("system notices must not leak into the prompt")
	}
	if !strings.HasSuffix(prompt, "Assistant:") {
		t.Errorf("prompt should end with the assistant cue: %q", prompt)
	}
	if strings.Index(prompt, "What is Go?") > strings.Index(prompt, "Who made it?") {
		t.Error("turn order must be preserved")
	}
}

func TestConversation_PromptSkipsStreaming(t *testing.T) {
	conv := NewConversation()
	conv.Add(NewUserMessage("hi"))
	streaming := NewStreamingMessage()
	streaming.AppendToken("partial")
	conv.Add(streaming)

	if strings.Contains(conv.Prompt(), "partial") {
		t.Error("in-flight messages must not appear in the prompt")
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_TTFT(t *testing.T) {
	stats := NewStatistics()

	if stats.TTFT() != 0 {
		t.Error("TTFT should be 0 before the first token")
	}

	time.Sleep(5 * time.Millisecond)
	stats.RecordFirstToken()
	first := stats.FirstTokenTime
	stats.RecordFirstToken() // second call is a no-op

	if stats.FirstTokenTime != first {
		t.Error("RecordFirstToken should only record once")
	}
	if stats.TTFT() <= 0 {
		t.Error("TTFT should be positive after the first token")
	}
}

func TestStatistics_TokensPerSecond(t *testing.T) {
	stats := NewStatistics()
	if stats.TokensPerSecond() != 0 {
		t.Error("rate should be 0 before finalize")
	}

	time.Sleep(5 * time.Millisecond)
	stats.Finalize(50)

	if stats.TokensPerSecond() <= 0 {
		t.Error("rate should be positive after finalize")
	}
}
