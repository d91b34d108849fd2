// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/crtchat/internal/avatar"
	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ui/components"
	"github.com/jeranaias/crtchat/internal/ui/styles"
	"github.com/jeranaias/crtchat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteByte('\n')
	sb.WriteString(m.renderBody())
	sb.WriteByte('\n')
	sb.WriteString(m.renderInput())
	sb.WriteByte('\n')
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("CRTCHAT")
	sub := m.theme.StatusBar.Render(" // " + m.modelName)
	return m.theme.Header.Width(m.width).Render(title + sub)
}

func (m Model) renderBody() string {
	chat := m.viewport.View()

	if !m.avatarEnabled || m.theme.GetLayoutMode() == styles.LayoutCompact {
		return chat
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderAvatar(), " ", chat)
}

func (m Model) renderAvatar() string {
	frame := strings.Join(m.face.Frame(), "\n")

	style := m.theme.AvatarPane
	if m.face.State() == avatar.StateError {
		style = m.theme.AvatarError
	}
	label := m.theme.SystemLabel.Render("UNIT-01")
	return style.Render(label + "\n" + frame)
}

func (m Model) renderInput() string {
	line := m.input.View()
	if m.isGenerating {
		line = m.spin.View() + " " + m.theme.SystemText.Render("generating... (esc to abort)")
	}
	return m.theme.InputContainer.Width(m.width).Render(line)
}

func (m Model) renderStatusBar() string {
	bar := components.StatusBar{
		Theme:          m.theme,
		Width:          m.width,
		Running:        m.status.Running,
		ModelAvailable: m.status.ModelAvailable,
		Model:          m.modelName,
		Generating:     m.isGenerating,
	}
	if m.lastStats != nil {
		bar.TokensPerSec = m.lastStats.TokensPerSecond()
	}
	return bar.Render()
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// updateViewport rebuilds the transcript content.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}

func (m *Model) renderTranscript() string {
	if m.conversation.Len() == 0 {
		banner := components.WelcomeBanner{
			Theme:   m.theme,
			Version: m.version,
			Model:   m.modelName,
		}
		return banner.Render()
	}

	var sb strings.Builder
	for i, msg := range m.conversation.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderMessage(msg))
	}
	return sb.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	label := m.labelStyle(msg.Role).Render(msg.Role.DisplayName())
	timestamp := m.theme.StatsLine.Render(" " + msg.Timestamp.Format("15:04:05"))
	sb.WriteString(label + timestamp + "\n")

	sb.WriteString(m.renderContent(msg))

	if m.showStats && msg.Role == model.RoleAssistant && !msg.IsStreaming && msg.TokensPerSec > 0 {
		sb.WriteByte('\n')
		sb.WriteString(m.theme.StatsLine.Render(fmt.Sprintf(
			"%d tokens | %.1f tok/s | ttft %dms",
			msg.TokenCount, msg.TokensPerSec, msg.TTFT.Milliseconds(),
		)))
	}
	return sb.String()
}

func (m *Model) renderContent(msg *model.Message) string {
	content := msg.DisplayContent()
	width := m.chatWidth() - 2

	switch msg.Role {
	case model.RoleUser:
		return m.theme.UserText.Render(util.WrapText(content, width))

	case model.RoleSystem:
		return m.theme.SystemText.Render(util.WrapText(content, width))

	default:
		// Finished assistant replies get full markdown. While streaming
		// we show raw text: re-rendering markdown per token flickers.
		if msg.IsStreaming {
			cursor := ""
			if m.isGenerating && msg.ID == m.streamingID {
				cursor = "_"
			}
			return m.theme.AssistantText.Render(util.WrapText(content, width) + cursor)
		}
		return m.renderAssistant(content, width)
	}
}

func (m *Model) renderAssistant(content string, width int) string {
	if m.markdownEnabled && m.mdRenderer != nil {
		if rendered, err := m.mdRenderer.Render(content); err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	// Fallback: chroma-highlighted code blocks, plain text otherwise.
	wrapped := util.WrapText(content, width)
	return m.theme.AssistantText.Render(
		components.ParseCodeBlocks(wrapped, width, m.theme.Palette))
}

func (m *Model) labelStyle(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleUser:
		return m.theme.UserLabel
	case model.RoleSystem:
		return m.theme.SystemLabel
	default:
		return m.theme.AssistantLabel
	}
}
