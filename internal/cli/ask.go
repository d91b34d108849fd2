// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot query mode for crtchat.
//
// Sends a single prompt and prints the response. On a TTY the answer
// is rendered as markdown; piped output streams raw tokens so the
// result stays script-friendly.
//
// Examples:
//   crtchat -ask "What is the capital of France?"
//   crtchat -ask "Explain this error" -model mistral
//   crtchat -ask "List of Go keywords" | grep func

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/crtchat/internal/config"
	"github.com/jeranaias/crtchat/internal/ollama"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders responses on a TTY. Nil when initialization
// fails, in which case output falls back to plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		markdownRenderer = r
	}
}

// renderMarkdown renders markdown for terminal display, returning the
// input unchanged when rendering is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints a response, rendered when stdout is a TTY.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// streamToStdout prints tokens as they arrive.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// ASK
// =============================================================================

// RunAsk sends a single question and prints the answer.
func RunAsk(cfg *config.Config, client *ollama.Client, modelName, question string, quiet bool) error {
	if question == "" {
		return fmt.Errorf("no question given")
	}
	if modelName == "" {
		modelName = cfg.Server.Model
	}
	if modelName == "" {
		modelName = client.GetDefaultModel()
	}

	ctx := context.Background()
	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	useMarkdown := IsStdoutTTY()
	var outputTokens int
	startTime := time.Now()

	prompt := "User: " + question + "\n\nAssistant:"
	content, err := client.GenerateStream(ctx, ollama.GenerateRequest{
		Model:  modelName,
		Prompt: prompt,
		Stream: true,
	}, func(chunk ollama.StreamChunk) {
		if chunk.Error != nil {
			return
		}
		if !useMarkdown {
			streamToStdout(chunk.Response)
		}
		if chunk.Done {
			outputTokens = chunk.CompletionTokens
		}
	})
	if err != nil {
		return formatCLIError(err)
	}

	if useMarkdown {
		displayResponse(content)
	}
	fmt.Println()

	if !quiet && IsStdoutTTY() {
		elapsed := time.Since(startTime)
		tps := 0.0
		if elapsed > 0 {
			tps = float64(outputTokens) / elapsed.Seconds()
		}
		fmt.Fprintln(os.Stderr, infoStyle.Render(formatBriefStats(outputTokens, elapsed, tps)))
	}
	return nil
}
