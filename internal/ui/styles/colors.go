// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the CRT phosphor styling system for crtchat.
// Each theme imitates a single-color phosphor tube: one hue at several
// brightness levels against a near-black surface.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is one phosphor color scheme.
type Palette struct {
	// Name matches the config theme value ("green", "amber", "white").
	Name string

	// Bright is the full-intensity phosphor, used for user input and
	// highlights.
	Bright lipgloss.Color

	// Normal is the standard text intensity.
	Normal lipgloss.Color

	// Dim is burned-in afterglow, used for borders, timestamps, hints.
	Dim lipgloss.Color

	// Surface is the tube background.
	Surface lipgloss.Color

	// Error stays red on every palette so failures read at a glance.
	Error lipgloss.Color
}

// =============================================================================
// PHOSPHOR PALETTES
// =============================================================================

// GreenPhosphor imitates a P1 green monochrome tube.
var GreenPhosphor = Palette{
	Name:    "green",
	Bright:  lipgloss.Color("#33FF66"),
	Normal:  lipgloss.Color("#22CC44"),
	Dim:     lipgloss.Color("#116622"),
	Surface: lipgloss.Color("#020A02"),
	Error:   lipgloss.Color("#FF5555"),
}

// AmberPhosphor imitates a P3 amber tube.
var AmberPhosphor = Palette{
	Name:    "amber",
	Bright:  lipgloss.Color("#FFCC33"),
	Normal:  lipgloss.Color("#DD9922"),
	Dim:     lipgloss.Color("#775511"),
	Surface: lipgloss.Color("#0A0602"),
	Error:   lipgloss.Color("#FF5555"),
}

// WhitePhosphor imitates a P4 white/gray tube.
var WhitePhosphor = Palette{
	Name:    "white",
	Bright:  lipgloss.Color("#F0F0F0"),
	Normal:  lipgloss.Color("#C0C0C0"),
	Dim:     lipgloss.Color("#606060"),
	Surface: lipgloss.Color("#050505"),
	Error:   lipgloss.Color("#FF5555"),
}

// PaletteByName returns the palette for a config theme name.
// Unknown names fall back to green.
func PaletteByName(name string) Palette {
	switch name {
	case "amber":
		return AmberPhosphor
	case "white":
		return WhitePhosphor
	default:
		return GreenPhosphor
	}
}
