// crtchat - A CRT-styled terminal chat for local LLMs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/crtchat/internal/cli"
	"github.com/jeranaias/crtchat/internal/config"
	"github.com/jeranaias/crtchat/internal/ollama"
	"github.com/jeranaias/crtchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		flagPlain   = flag.Bool("plain", false, "use the line-mode interface instead of the full-screen UI")
		flagAsk     = flag.String("ask", "", "send a single prompt and exit")
		flagModel   = flag.String("model", "", "model to use (overrides config)")
		flagURL     = flag.String("url", "", "Ollama server URL (overrides config)")
		flagTheme   = flag.String("theme", "", "color theme: green, amber, white (overrides config)")
		flagQuiet   = flag.Bool("quiet", false, "suppress stats and banners")
		flagDebug   = flag.Bool("debug", false, "write debug log to crtchat.log")
		flagVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Printf("crtchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	// CLI flags override config.
	if *flagURL != "" {
		cfg.Server.URL = *flagURL
	}
	if *flagModel != "" {
		cfg.Server.Model = *flagModel
	}
	if *flagTheme != "" {
		cfg.UI.Theme = *flagTheme
	}
	cfg.Validate()
	config.SetGlobal(cfg)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		Timeout:      time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		DefaultModel: cfg.Server.Model,
	})

	if cfg.Server.AutoStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.EnsureRunning(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not start Ollama: %v\n", err)
		}
		cancel()
	}

	cli.UsePalette(cfg.UI.Theme)

	// One-shot mode.
	if *flagAsk != "" {
		if err := cli.RunAsk(cfg, client, cfg.Server.Model, *flagAsk, *flagQuiet); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Line mode, either requested or forced by a non-interactive terminal.
	if *flagPlain || !cli.IsTTY() || !cli.IsStdoutTTY() {
		if err := cli.RunChat(cfg, client, cfg.Server.Model, *flagQuiet); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runTUI(cfg, client, *flagDebug)
}

// runTUI starts the full-screen interface.
func runTUI(cfg *config.Config, client *ollama.Client, debug bool) {
	if debug {
		f, err := tea.LogToFile("crtchat.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
		} else {
			defer f.Close()
		}
	}

	m := chat.New(cfg, client, Version)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// The streaming goroutine delivers tokens through this reference.
	chat.SetProgram(p)

	// Reflect config file edits in the running UI.
	watcher, err := config.Watch(func(updated *config.Config) {
		config.SetGlobal(updated)
		p.Send(chat.ConfigReloadedMsg{
			Model:            updated.Server.Model,
			Theme:            updated.UI.Theme,
			PollIntervalSecs: updated.Server.PollIntervalSecs,
		})
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running crtchat: %v\n", err)
		os.Exit(1)
	}
}
