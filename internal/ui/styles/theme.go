// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Palette is the active phosphor scheme
	Palette Palette

	// Terminal capabilities
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	SystemText     lipgloss.Style
	ErrorText      lipgloss.Style
	StatsLine      lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusOnline lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// AVATAR AND SPINNER STYLES
	// ==========================================================================

	AvatarPane  lipgloss.Style
	AvatarError lipgloss.Style
	Spinner     lipgloss.Style
}

// NewTheme creates a Theme for the named phosphor palette.
func NewTheme(paletteName string) *Theme {
	output := termenv.DefaultOutput()
	profile := output.Profile

	t := &Theme{
		Palette:      PaletteByName(paletteName),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// SetPalette switches the phosphor palette and rebuilds all styles.
func (t *Theme) SetPalette(paletteName string) {
	t.Palette = PaletteByName(paletteName)
	t.initStyles()
}

func (t *Theme) initStyles() {
	p := t.Palette

	t.App = lipgloss.NewStyle().
		Background(p.Surface)

	t.Header = lipgloss.NewStyle().
		Foreground(p.Dim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Dim)

	t.Title = lipgloss.NewStyle().
		Foreground(p.Bright).
		Bold(true)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(p.Bright).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(p.Normal).
		Bold(true)

	t.SystemLabel = lipgloss.NewStyle().
		Foreground(p.Dim).
		Bold(true)

	t.UserText = lipgloss.NewStyle().
		Foreground(p.Bright)

	t.AssistantText = lipgloss.NewStyle().
		Foreground(p.Normal)

	t.SystemText = lipgloss.NewStyle().
		Foreground(p.Dim)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(p.Error)

	t.StatsLine = lipgloss.NewStyle().
		Foreground(p.Dim).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(p.Dim)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.Bright).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(p.Dim)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.Dim)

	t.StatusOnline = lipgloss.NewStyle().
		Foreground(p.Bright).
		Bold(true)

	t.StatusError = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.Normal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.Dim)

	t.AvatarPane = lipgloss.NewStyle().
		Foreground(p.Normal).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Dim).
		Padding(0, 1)

	t.AvatarError = t.AvatarPane.
		Foreground(p.Error).
		BorderForeground(p.Error)

	t.Spinner = lipgloss.NewStyle().
		Foreground(p.Bright)
}

// SetSize records the current terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode describes how much room the terminal gives us.
type LayoutMode int

const (
	// LayoutFull shows the avatar pane beside the chat.
	LayoutFull LayoutMode = iota
	// LayoutCompact hides the avatar pane.
	LayoutCompact
)

// Avatar pane plus borders needs this many columns beyond the chat.
const fullLayoutMinWidth = 72

// GetLayoutMode returns the layout for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width >= fullLayoutMinWidth {
		return LayoutFull
	}
	return LayoutCompact
}
