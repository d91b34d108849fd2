// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ollama"
)

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================

// The streaming goroutine outlives the tea.Cmd that started it, so it
// delivers tokens through Program.Send. SetProgram is called once from
// main after tea.NewProgram.
var (
	programMu  sync.Mutex
	programRef *tea.Program
)

// SetProgram stores the program reference used for async token delivery.
func SetProgram(p *tea.Program) {
	programMu.Lock()
	defer programMu.Unlock()
	programRef = p
}

func sendMsg(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// probeTimeout bounds the periodic health probe.
const probeTimeout = 5 * time.Second

// CheckStatusCmd creates a command that probes server and model health.
func CheckStatusCmd(client *ollama.Client, modelName string) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return StatusMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		return StatusMsg{Status: client.CheckStatus(ctx, modelName)}
	}
}

// StreamCmd starts a generation stream for the given prompt.
//
// The returned command blocks in its own goroutine until the stream
// finishes. Tokens are pushed to the UI via Program.Send as they arrive;
// the final StreamCompleteMsg or StreamErrorMsg is the command's return
// value.
func StreamCmd(ctx context.Context, client *ollama.Client, modelName, prompt, messageID string) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return StreamErrorMsg{
				MessageID: messageID,
				Error:     ollama.ErrNotRunning,
			}
		}

		sendMsg(StreamStartMsg{MessageID: messageID, StartTime: time.Now()})

		stats := model.NewStatistics()
		isFirst := true
		var completionTokens int

		req := ollama.GenerateRequest{
			Model:  modelName,
			Prompt: prompt,
			Stream: true,
		}

		_, err := client.GenerateStream(ctx, req, func(chunk ollama.StreamChunk) {
			if chunk.Response != "" {
				first := isFirst
				if first {
					stats.RecordFirstToken()
					isFirst = false
				}
				sendMsg(StreamTokenMsg{
					MessageID: messageID,
					Token:     chunk.Response,
					IsFirst:   first,
				})
			}
			if chunk.Done {
				completionTokens = chunk.CompletionTokens
			}
		})

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return StreamCancelledMsg{MessageID: messageID}
			}
			return StreamErrorMsg{
				MessageID: messageID,
				Error:     err,
			}
		}

		stats.Finalize(completionTokens)
		return StreamCompleteMsg{
			MessageID: messageID,
			Stats:     stats,
		}
	}
}
