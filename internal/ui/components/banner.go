// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/crtchat/internal/ui/styles"
)

// bannerArt is shown once on startup, before any messages exist.
var bannerArt = []string{
	`  ___  ____  ____  ___  _  _    __   ____ `,
	` / __)(  _ \(_  _)/ __)( )( )  /__\ (_  _)`,
	`( (__  )   /  )( ( (__  )__(  /(__)\  )(  `,
	` \___)(_)\_) (__) \___)(_)(_)(__)(__)(__) `,
}

// WelcomeBanner renders the startup screen content.
type WelcomeBanner struct {
	Theme   *styles.Theme
	Version string
	Model   string
}

// Render produces the banner block.
func (b WelcomeBanner) Render() string {
	var sb strings.Builder

	for _, line := range bannerArt {
		sb.WriteString(b.Theme.Title.Render(line))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	sb.WriteString(b.Theme.SystemText.Render("UNIT-01 TERMINAL READY"))
	if b.Version != "" {
		sb.WriteString(b.Theme.StatusBar.Render("  v" + b.Version))
	}
	sb.WriteByte('\n')

	if b.Model != "" {
		sb.WriteString(b.Theme.StatusBar.Render("model: " + b.Model))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(b.Theme.SystemText.Render("Type a message to begin, or /help for commands."))

	return sb.String()
}
