// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/crtchat/internal/ui/styles"
	"github.com/jeranaias/crtchat/internal/util"
)

// maxModelWidth caps the model name in the bar so a long registry tag
// cannot push the shortcuts off a narrow terminal.
const maxModelWidth = 24

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the single-line footer: connection state on the
// left, active model and shortcuts on the right.
type StatusBar struct {
	Theme *styles.Theme
	Width int

	// Connection state from the last health probe
	Running        bool
	ModelAvailable bool

	// Model is the active model name
	Model string

	// Generating indicates a response is streaming
	Generating bool

	// TokensPerSec from the last completed response, 0 if unknown
	TokensPerSec float64
}

// Render produces the status bar line, padded or truncated to Width.
func (s StatusBar) Render() string {
	left := s.renderConnection()

	var parts []string
	if s.Model != "" {
		parts = append(parts, s.Theme.StatusBar.Render("model: "+util.TruncateWidth(s.Model, maxModelWidth)))
	}
	if s.TokensPerSec > 0 {
		parts = append(parts, s.Theme.StatusBar.Render(fmt.Sprintf("%.1f tok/s", s.TokensPerSec)))
	}
	parts = append(parts,
		s.Theme.ShortcutKey.Render("^C")+s.Theme.ShortcutDesc.Render(" quit"),
		s.Theme.ShortcutKey.Render("/help")+s.Theme.ShortcutDesc.Render(" commands"),
	)
	right := strings.Join(parts, s.Theme.StatusBar.Render("  |  "))

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (s StatusBar) renderConnection() string {
	switch {
	case !s.Running:
		return s.Theme.StatusError.Render("* OFFLINE")
	case !s.ModelAvailable:
		return s.Theme.StatusError.Render("* NO MODEL")
	case s.Generating:
		return s.Theme.StatusOnline.Render("* STREAMING")
	default:
		return s.Theme.StatusOnline.Render("* ONLINE")
	}
}
