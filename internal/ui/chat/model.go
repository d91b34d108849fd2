// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"golang.org/x/time/rate"

	"github.com/jeranaias/crtchat/internal/avatar"
	"github.com/jeranaias/crtchat/internal/commands"
	"github.com/jeranaias/crtchat/internal/config"
	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ollama"
	"github.com/jeranaias/crtchat/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme  *styles.Theme
	client *ollama.Client

	conversation *model.Conversation
	face         *avatar.Avatar

	// Components
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	// Slash commands
	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	// Streaming state. Only one generation runs at a time; input is
	// gated on isGenerating while the goroutine streams tokens in.
	streamBuf    *StreamingBuffer
	isGenerating bool
	streamingID  string
	cancelStream context.CancelFunc

	// Server status from the last probe
	status ollama.ConnectionStatus

	// Coalesces user-forced /status probes so a held-down key cannot
	// hammer the server between scheduled ticks.
	statusLimiter *rate.Limiter

	// Settings
	modelName       string
	pollInterval    time.Duration
	avatarEnabled   bool
	markdownEnabled bool
	showStats       bool

	lastStats *model.Statistics

	mdRenderer *glamour.TermRenderer

	width   int
	height  int
	ready   bool
	version string

	quitting bool
}

// New creates the chat model from configuration.
func New(cfg *config.Config, client *ollama.Client, version string) Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	ti := textinput.New()
	ti.Placeholder = "type a message"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	m := Model{
		theme:           theme,
		client:          client,
		conversation:    model.NewConversation(),
		face:            avatar.New(),
		input:           ti,
		spin:            sp,
		registry:        registry,
		parser:          commands.NewParser(registry),
		cmdCtx:          commands.NewContext(cfg, client),
		streamBuf:       NewStreamingBufferWithConfig(defaultBatchSize, cfg.UI.MaxFPS),
		statusLimiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		modelName:       cfg.Server.Model,
		pollInterval:    time.Duration(cfg.Server.PollIntervalSecs) * time.Second,
		avatarEnabled:   cfg.UI.AvatarEnabled,
		markdownEnabled: cfg.UI.MarkdownEnabled,
		showStats:       cfg.UI.ShowStats,
		version:         version,
	}
	m.cmdCtx.CurrentModel = m.modelName
	return m
}

// =============================================================================
// INIT
// =============================================================================

// Init starts the input cursor, the avatar animation, and the health
// probe cycle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		CheckStatusCmd(m.client, m.modelName),
		statusTickCmd(m.pollInterval),
		avatarTickCmd(),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// CurrentModel returns the active model name.
func (m *Model) CurrentModel() string {
	return m.modelName
}

// IsGenerating reports whether a response is currently streaming.
func (m *Model) IsGenerating() bool {
	return m.isGenerating
}

// Status returns the last known connection status.
func (m *Model) Status() ollama.ConnectionStatus {
	return m.status
}

// rebuildRenderer recreates the glamour renderer for the current width.
func (m *Model) rebuildRenderer() {
	width := m.chatWidth() - 2
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.mdRenderer = nil
		return
	}
	m.mdRenderer = renderer
}

// chatWidth is the column budget for the transcript pane.
func (m *Model) chatWidth() int {
	width := m.width
	if m.avatarEnabled && m.theme.GetLayoutMode() == styles.LayoutFull {
		width -= avatar.Width + 6
	}
	if width < 20 {
		width = 20
	}
	return width
}
