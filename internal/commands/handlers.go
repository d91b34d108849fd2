// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/crtchat/internal/ollama"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// SystemMessageMsg adds a system message to the chat.
type SystemMessageMsg struct {
	Content string
}

// ErrorMsg indicates a command error occurred.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// QuitMsg requests application exit.
type QuitMsg struct{}

// ClearConversationMsg triggers clearing the conversation.
type ClearConversationMsg struct{}

// ModelSwitchMsg indicates a model switch request.
type ModelSwitchMsg struct {
	Model   string // The model to switch to
	Message string // Confirmation text to display
	Error   error
}

// ModelListMsg carries the model list fetched for /models.
type ModelListMsg struct {
	Models []ollama.ModelInfo
	Error  error
}

// StatusRequestMsg asks the app for an immediate status probe.
type StatusRequestMsg struct{}

// ThemeSwitchMsg requests a phosphor theme change.
type ThemeSwitchMsg struct {
	Theme string
}

// ToggleAvatarMsg toggles the avatar pane.
type ToggleAvatarMsg struct{}

// ToggleStatsMsg toggles the per-response statistics line.
type ToggleStatsMsg struct{}

// listModelsTimeout bounds the /models and /model fetches.
const listModelsTimeout = 10 * time.Second

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	registry := NewRegistry()
	return func() tea.Msg {
		var sb strings.Builder
		sb.WriteString("Commands\n")
		sb.WriteString("========\n\n")

		byCat := registry.ByCategory()
		categories := make([]string, 0, len(byCat))
		for cat := range byCat {
			categories = append(categories, cat)
		}
		sort.Strings(categories)

		for _, cat := range categories {
			cmds := byCat[cat]
			sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
			sb.WriteString(cat + ":\n")
			for _, cmd := range cmds {
				usage := cmd.Usage
				if usage == "" {
					usage = cmd.Name
				}
				sb.WriteString(fmt.Sprintf("  %-28s %s\n", usage, cmd.Description))
				if len(cmd.Aliases) > 0 {
					sb.WriteString(fmt.Sprintf("  %-28s aliases: %s\n", "", strings.Join(cmd.Aliases, ", ")))
				}
			}
			sb.WriteString("\n")
		}

		sb.WriteString("Anything else you type is sent to the model.\n")
		sb.WriteString("For a plain line-mode session, restart with: crtchat -plain")
		return SystemMessageMsg{Content: sb.String()}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return QuitMsg{}
	}
}

// HandleClear clears the conversation.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleModel switches the active model, or shows the current one.
func HandleModel(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		current := ""
		if ctx != nil {
			current = ctx.CurrentModel
		}
		return func() tea.Msg {
			return SystemMessageMsg{
				Content: fmt.Sprintf("Current model: %s\nUse /model <name> to switch, /models to list.", current),
			}
		}
	}

	name := args[0]
	client := ctx.Ollama
	return func() tea.Msg {
		// Confirm the model exists before switching so a typo does not
		// leave the session pointing at a model that will 404.
		if client != nil {
			reqCtx, cancel := context.WithTimeout(context.Background(), listModelsTimeout)
			defer cancel()

			if !client.ModelExists(reqCtx, name) {
				return ErrorMsg{
					Title:   "Model not found",
					Message: fmt.Sprintf("Model %q is not installed", name),
					Tip:     fmt.Sprintf("Try: ollama pull %s, or /models to see what is installed", name),
				}
			}
		}
		return ModelSwitchMsg{
			Model:   name,
			Message: fmt.Sprintf("Switched to %s", name),
		}
	}
}

// HandleModels lists locally installed models.
func HandleModels(ctx *Context, args []string) tea.Cmd {
	client := ctx.Ollama
	return func() tea.Msg {
		if client == nil {
			return ModelListMsg{Error: fmt.Errorf("no client configured")}
		}
		reqCtx, cancel := context.WithTimeout(context.Background(), listModelsTimeout)
		defer cancel()

		models, err := client.ListModels(reqCtx)
		return ModelListMsg{Models: models, Error: err}
	}
}

// HandleStatus triggers an immediate server status probe.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return StatusRequestMsg{}
	}
}

// HandleTheme changes the phosphor theme.
func HandleTheme(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing argument",
				Message: "/theme requires a theme name",
				Tip:     "Usage: /theme <green|amber|white>",
			}
		}
	}

	theme := strings.ToLower(args[0])
	switch theme {
	case "green", "amber", "white":
		return func() tea.Msg {
			return ThemeSwitchMsg{Theme: theme}
		}
	default:
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid theme",
				Message: fmt.Sprintf("Unknown theme: %s", theme),
				Tip:     "Valid themes: green, amber, white",
			}
		}
	}
}

// HandleAvatar toggles the avatar pane.
func HandleAvatar(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ToggleAvatarMsg{}
	}
}

// HandleStats toggles the statistics line.
func HandleStats(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ToggleStatsMsg{}
	}
}
