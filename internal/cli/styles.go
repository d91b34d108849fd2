// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - lipgloss styles for plain-terminal output.
//
// The CLI reuses the phosphor palettes from the full-screen UI so both
// surfaces share one look.

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/crtchat/internal/ui/styles"
)

var (
	promptStyle  lipgloss.Style
	infoStyle    lipgloss.Style
	commandStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
	bannerStyle  lipgloss.Style
)

func init() {
	applyPalette(styles.GreenPhosphor)
}

// applyPalette rebuilds the CLI styles from a phosphor palette.
func applyPalette(p styles.Palette) {
	promptStyle = lipgloss.NewStyle().Foreground(p.Bright).Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(p.Dim)
	commandStyle = lipgloss.NewStyle().Foreground(p.Normal)
	warningStyle = lipgloss.NewStyle().Foreground(p.Normal).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(p.Error)
	bannerStyle = lipgloss.NewStyle().Foreground(p.Bright).Bold(true)
}

// UsePalette switches the CLI styles to the named palette.
// Unknown names fall back to green.
func UsePalette(name string) {
	applyPalette(styles.PaletteByName(name))
}
