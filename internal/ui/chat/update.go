// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/crtchat/internal/avatar"
	"github.com/jeranaias/crtchat/internal/commands"
	"github.com/jeranaias/crtchat/internal/config"
	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ollama"
	"github.com/jeranaias/crtchat/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the appropriate handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.isGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	// Streaming
	case StreamStartMsg:
		return m.handleStreamStart(msg)
	case StreamTokenMsg:
		return m.handleStreamToken(msg)
	case StreamTickMsg:
		return m.handleStreamTick(msg)
	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)
	case StreamCancelledMsg:
		return m.handleStreamCancelled(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)

	// Server status
	case StatusMsg:
		return m.handleStatus(msg)
	case StatusTickMsg:
		return m, tea.Batch(
			CheckStatusCmd(m.client, m.modelName),
			statusTickCmd(m.pollInterval),
		)

	// Animation
	case AvatarTickMsg:
		m.face.Advance()
		return m, avatarTickCmd()

	// Config hot reload
	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	// Slash command results
	case commands.SystemMessageMsg:
		m.addSystemMessage(msg.Content)
		return m, nil
	case commands.ErrorMsg:
		m.addSystemMessage(formatCommandError(msg))
		return m, nil
	case commands.QuitMsg:
		m.quitting = true
		if m.cancelStream != nil {
			m.cancelStream()
		}
		return m, tea.Quit
	case commands.ClearConversationMsg:
		m.conversation.Clear()
		m.lastStats = nil
		m.updateViewport()
		return m, nil
	case commands.ModelSwitchMsg:
		return m.handleModelSwitch(msg)
	case commands.ModelListMsg:
		return m.handleModelList(msg)
	case commands.StatusRequestMsg:
		// Coalesce bursts of forced probes; the scheduled tick still runs.
		if !m.statusLimiter.Allow() {
			return m, nil
		}
		return m, CheckStatusCmd(m.client, m.modelName)
	case commands.ThemeSwitchMsg:
		m.theme.SetPalette(msg.Theme)
		m.input.PromptStyle = m.theme.InputPrompt
		m.input.PlaceholderStyle = m.theme.InputPlaceholder
		m.spin.Style = m.theme.Spinner
		m.addSystemMessage("Theme set to " + msg.Theme)
		return m, persistConfigCmd(func(c *config.Config) { c.UI.Theme = msg.Theme })
	case commands.ToggleAvatarMsg:
		m.avatarEnabled = !m.avatarEnabled
		m.rebuildRenderer()
		m.updateViewport()
		return m, nil
	case commands.ToggleStatsMsg:
		m.showStats = !m.showStats
		m.updateViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE AND KEYS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	chatHeight := msg.Height - chromeHeight
	if chatHeight < 3 {
		chatHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(m.chatWidth(), chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.chatWidth()
		m.viewport.Height = chatHeight
	}
	m.input.Width = msg.Width - 6

	m.rebuildRenderer()
	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Quit):
		m.quitting = true
		if m.cancelStream != nil {
			m.cancelStream()
		}
		return m, tea.Quit

	case keyMatches(msg, keys.Cancel):
		if m.isGenerating && m.cancelStream != nil {
			m.cancelStream()
		}
		return m, nil

	case keyMatches(msg, keys.Submit):
		return m.handleSubmit()

	case keyMatches(msg, keys.ScrollUp):
		m.viewport.LineUp(3)
		return m, nil

	case keyMatches(msg, keys.ScrollDown):
		m.viewport.LineDown(3)
		return m, nil

	case keyMatches(msg, keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case keyMatches(msg, keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	raw := util.SanitizeInput(m.input.Value())
	text := strings.TrimSpace(raw)
	if text == "" {
		return m, nil
	}

	m.input.Reset()

	if commands.IsCommand(text) {
		return m.executeCommand(text)
	}
	return m.startGeneration(text)
}

func (m Model) executeCommand(text string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		m.addSystemMessage(fmt.Sprintf("Unknown command: %s (try /help)", result.CommandName))
		return m, nil
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		m.addSystemMessage(err.Error())
		return m, nil
	}

	m.cmdCtx.CurrentModel = m.modelName
	return m, result.Command.Handler(m.cmdCtx, result.Args)
}

func (m Model) startGeneration(text string) (tea.Model, tea.Cmd) {
	if m.isGenerating {
		m.addSystemMessage("Still responding. Press esc to abort first.")
		return m, nil
	}

	m.conversation.Add(model.NewUserMessage(text))

	// Prompt is flattened before the placeholder goes in; streaming
	// messages are excluded from it anyway.
	prompt := m.conversation.Prompt()

	streaming := model.NewStreamingMessage()
	m.conversation.Add(streaming)

	m.isGenerating = true
	m.streamingID = streaming.ID
	m.streamBuf.Reset()
	m.face.SetState(avatar.StateThinking)
	m.updateViewport()
	m.viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel

	return m, tea.Batch(
		StreamCmd(ctx, m.client, m.modelName, prompt, streaming.ID),
		streamTickCmd(),
		m.spin.Tick,
	)
}

// =============================================================================
// STREAMING HANDLERS
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	m.face.SetState(avatar.StateThinking)
	return m, nil
}

func (m Model) handleStreamToken(msg StreamTokenMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	if msg.IsFirst {
		m.face.SetState(avatar.StateTalking)
	}
	m.streamBuf.Write(msg.Token)
	return m, nil
}

func (m Model) handleStreamTick(msg StreamTickMsg) (tea.Model, tea.Cmd) {
	if !m.isGenerating {
		return m, nil
	}
	if content, ok := m.streamBuf.Flush(); ok {
		if streaming := m.conversation.FindByID(m.streamingID); streaming != nil {
			streaming.AppendToken(content)
		}
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	m.finishStream(msg.MessageID)

	if streaming := m.conversation.FindByID(msg.MessageID); streaming != nil && msg.Stats != nil {
		streaming.TTFT = msg.Stats.TTFT()
		streaming.TokensPerSec = msg.Stats.TokensPerSecond()
	}
	m.lastStats = msg.Stats
	m.face.SetState(avatar.StateIdle)
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleStreamCancelled(msg StreamCancelledMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	m.finishStream(msg.MessageID)
	m.addSystemMessage("Response aborted.")
	m.face.SetState(avatar.StateIdle)
	m.updateViewport()
	return m, nil
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	m.finishStream(msg.MessageID)
	m.addSystemMessage(formatStreamError(msg.Error))
	m.face.SetState(avatar.StateError)
	m.updateViewport()
	return m, nil
}

// finishStream drains the buffer into the message and clears the
// streaming flags.
func (m *Model) finishStream(messageID string) {
	if content, ok := m.streamBuf.ForceFlush(); ok {
		if streaming := m.conversation.FindByID(messageID); streaming != nil {
			streaming.AppendToken(content)
		}
	}
	if streaming := m.conversation.FindByID(messageID); streaming != nil {
		streaming.FinishStreaming()
	}
	m.isGenerating = false
	m.streamingID = ""
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
}

// =============================================================================
// STATUS AND COMMAND RESULT HANDLERS
// =============================================================================

func (m Model) handleStatus(msg StatusMsg) (tea.Model, tea.Cmd) {
	wasRunning := m.status.Running
	m.status = msg.Status

	// Flip the avatar to the error face when the server drops, but do
	// not interrupt an in-flight stream over a failed probe.
	if !m.isGenerating {
		if !msg.Status.Running {
			m.face.SetState(avatar.StateError)
		} else if m.face.State() == avatar.StateError {
			m.face.SetState(avatar.StateIdle)
		}
	}

	if !wasRunning && msg.Status.Running && m.conversation.Len() > 0 {
		m.addSystemMessage("Server connection restored.")
		m.updateViewport()
	}
	return m, nil
}

func (m Model) handleModelSwitch(msg commands.ModelSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.addSystemMessage(formatStreamError(msg.Error))
		m.updateViewport()
		return m, nil
	}
	m.modelName = msg.Model
	m.cmdCtx.CurrentModel = msg.Model
	if m.client != nil {
		m.client.SetModel(msg.Model)
	}
	if msg.Message != "" {
		m.addSystemMessage(msg.Message)
	}
	m.updateViewport()
	// Re-probe so the status bar reflects the new model immediately.
	return m, tea.Batch(
		persistConfigCmd(func(c *config.Config) { c.Server.Model = msg.Model }),
		CheckStatusCmd(m.client, m.modelName),
	)
}

func (m Model) handleModelList(msg commands.ModelListMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.addSystemMessage(formatStreamError(msg.Error))
		m.updateViewport()
		return m, nil
	}
	m.cmdCtx.AvailableModels = msg.Models
	m.addSystemMessage(formatModelList(msg.Models, m.modelName))
	m.updateViewport()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Theme != "" && msg.Theme != m.theme.Palette.Name {
		m.theme.SetPalette(msg.Theme)
	}
	if msg.Model != "" && msg.Model != m.modelName {
		m.modelName = msg.Model
		m.cmdCtx.CurrentModel = msg.Model
		if m.client != nil {
			m.client.SetModel(msg.Model)
		}
	}
	if msg.PollIntervalSecs > 0 {
		m.pollInterval = secondsToDuration(msg.PollIntervalSecs)
	}
	return m, CheckStatusCmd(m.client, m.modelName)
}

// =============================================================================
// HELPERS
// =============================================================================

// persistConfigCmd applies a mutation to the global config and writes it
// back to disk so theme and model switches survive a restart. A failed
// write is logged and otherwise ignored; the in-memory switch has
// already taken effect.
func persistConfigCmd(mutate func(*config.Config)) tea.Cmd {
	return func() tea.Msg {
		cfg := *config.Global()
		mutate(&cfg)
		config.SetGlobal(&cfg)
		if err := config.Save(&cfg); err != nil {
			log.Printf("config: save failed: %v", err)
		}
		return nil
	}
}

func (m *Model) addSystemMessage(content string) {
	m.conversation.Add(model.NewSystemMessage(content))
}

// formatStreamError renders a typed client error as user guidance.
func formatStreamError(err error) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Cannot reach the Ollama server. Start it with: ollama serve"
	case ollama.IsModelNotFound(err):
		return fmt.Sprintf("%v", err)
	case ollama.IsTimeout(err):
		return "The server took too long to respond. Try again."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func formatCommandError(msg commands.ErrorMsg) string {
	var sb strings.Builder
	sb.WriteString(msg.Title)
	if msg.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(msg.Message)
	}
	if msg.Tip != "" {
		sb.WriteString("\n")
		sb.WriteString(msg.Tip)
	}
	return sb.String()
}

func formatModelList(models []ollama.ModelInfo, current string) string {
	if len(models) == 0 {
		return "No models installed. Pull one with: ollama pull llama3.2"
	}

	var sb strings.Builder
	sb.WriteString("Installed models:\n")
	for _, mi := range models {
		marker := "  "
		if mi.Name == current || mi.Name == current+":latest" {
			marker = "* "
		}
		sb.WriteString("  " + marker + util.PadRight(mi.Name, 24) + " " + mi.FormatSize() + "\n")
	}
	sb.WriteString("\nUse /model <name> to switch.")
	return sb.String()
}
