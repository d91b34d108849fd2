// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for crtchat.
//
// Runs a readline-style REPL against the local Ollama server. This is
// the fallback surface for dumb terminals and the -plain flag; the
// full-screen UI lives in internal/ui/chat.
//
// Interactive commands:
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /model [name]       Show or switch model
//   /models             List installed models
//   /status, /s         Show session statistics
//   /reload, /r         Re-read the config file
//   /quit, /q, /exit    Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/crtchat/internal/commands"
	"github.com/jeranaias/crtchat/internal/config"
	"github.com/jeranaias/crtchat/internal/model"
	"github.com/jeranaias/crtchat/internal/ollama"
	"github.com/jeranaias/crtchat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner to provide input history and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state of one interactive session.
type ChatSession struct {
	Conversation *model.Conversation
	Config       *config.Config
	Model        string
	Quiet        bool

	StartTime   time.Time
	TotalTokens int
	Turns       int

	Client   *ollama.Client
	InputCLI *ChatCLI

	// cancel aborts the in-flight generation, if any. Written by the REPL
	// goroutine and invoked from the signal handler, so access goes
	// through the mutex-guarded helpers below.
	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// setCancel installs the cancel func for the current generation.
func (s *ChatSession) setCancel(fn context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancel = fn
	s.cancelMu.Unlock()
}

// clearCancel removes the installed cancel func without invoking it.
func (s *ChatSession) clearCancel() {
	s.setCancel(nil)
}

// cancelActive aborts the in-flight generation. Reports whether there was
// one to abort; the func is cleared so a second interrupt is a no-op.
func (s *ChatSession) cancelActive() bool {
	s.cancelMu.Lock()
	fn := s.cancel
	s.cancel = nil
	s.cancelMu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// NewChatSession creates a session bound to the given client and model.
func NewChatSession(cfg *config.Config, client *ollama.Client, modelName string, quiet bool) *ChatSession {
	if modelName == "" {
		modelName = cfg.Server.Model
	}
	if modelName == "" {
		modelName = client.GetDefaultModel()
	}
	return &ChatSession{
		Conversation: model.NewConversation(),
		Config:       cfg,
		Model:        modelName,
		Quiet:        quiet,
		StartTime:    time.Now(),
		Client:       client,
		InputCLI:     NewChatCLI(),
	}
}

// =============================================================================
// REPL
// =============================================================================

// RunChat runs the interactive line-mode chat loop.
func RunChat(cfg *config.Config, client *ollama.Client, modelName string, quiet bool) error {
	session := NewChatSession(cfg, client, modelName, quiet)

	ctx := context.Background()
	if err := session.Client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	if !session.Quiet {
		printWelcome(session)
	}

	defer session.InputCLI.Close()

	// First Ctrl+C during generation cancels the stream. At the prompt,
	// liner surfaces it as ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if session.cancelActive() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// ErrPromptAborted is Ctrl+C, anything else is EOF.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(util.SanitizeInput(input))
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends one user turn and streams the reply.
func processMessage(session *ChatSession, input string) error {
	session.Conversation.Add(model.NewUserMessage(input))
	prompt := session.Conversation.Prompt()

	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.clearCancel()
		cancel()
	}()

	// Markdown is collected and rendered at the end on a TTY; piped
	// output streams tokens as they arrive.
	useMarkdown := IsStdoutTTY()

	var outputTokens int
	startTime := time.Now()

	fmt.Println()
	content, err := session.Client.GenerateStream(ctx, ollama.GenerateRequest{
		Model:  session.Model,
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
		// Drop the user turn so a retry does not double it.
		if n := session.Conversation.Len(); n > 0 {
			session.Conversation.Messages = session.Conversation.Messages[:n-1]
		}
		if ctx.Err() == context.Canceled {
			return nil
		}
		return formatCLIError(err)
	}

	if useMarkdown {
		displayResponse(content)
	}
	fmt.Println()

	session.Conversation.Add(model.NewMessage(model.RoleAssistant, content))
	session.TotalTokens += outputTokens
	session.Turns++

	if !session.Quiet {
		elapsed := time.Since(startTime)
		tps := 0.0
		if elapsed > 0 {
			tps = float64(outputTokens) / elapsed.Seconds()
		}
		fmt.Fprintln(os.Stderr, infoStyle.Render(formatBriefStats(outputTokens, elapsed, tps)))
	}
	return nil
}

// formatBriefStats renders the one-line stats footer shown after a reply.
func formatBriefStats(tokens int, elapsed time.Duration, tps float64) string {
	return fmt.Sprintf("[%d tokens | %s | %.1f tok/s]",
		tokens, elapsed.Round(100*time.Millisecond), tps)
}

// formatCLIError maps typed client errors to actionable messages.
func formatCLIError(err error) error {
	switch {
	case ollama.IsNotRunning(err):
		return fmt.Errorf("cannot reach the Ollama server. Start it with: ollama serve")
	case ollama.IsModelNotFound(err):
		return err
	case ollama.IsTimeout(err):
		return fmt.Errorf("the server took too long to respond. Try again")
	default:
		return err
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// parseSlash splits a slash command into its name and arguments.
// The name is lowercased; the leading slash is kept.
func parseSlash(input string) (string, []string) {
	name := commands.ExtractCommandName(input)
	if name == "" {
		return "", nil
	}
	parts := strings.Fields(input)
	return strings.ToLower(name), parts[1:]
}

// handleSlashCommand processes slash commands.
// Returns false when the session should end.
func handleSlashCommand(input string, session *ChatSession) (bool, error) {
	command, args := parseSlash(input)

	switch command {
	case "/help", "/h", "/?", "/":
		printHelp()
		return true, nil

	case "/clear", "/c":
		session.Conversation.Clear()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelCommand(session, args)

	case "/models":
		return handleModelsCommand(session)

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/reload", "/r":
		return handleReloadCommand(session)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (try /help)", command)
	}
}

func handleModelCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("Current model: %s\n", commandStyle.Render(session.Model))
		return true, nil
	}

	name := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !session.Client.ModelExists(ctx, name) {
		return true, fmt.Errorf("model %q is not installed. Try: ollama pull %s", name, name)
	}

	session.Model = name
	session.Client.SetModel(name)
	fmt.Printf("%s %s\n", commandStyle.Render("[Switched to]"), name)
	return true, nil
}

// handleReloadCommand re-reads the config file and applies the model and
// theme to the running session. Line mode has no file watcher, so this
// is the way to pick up edits without restarting.
func handleReloadCommand(session *ChatSession) (bool, error) {
	if err := config.ReloadGlobal(); err != nil {
		return true, err
	}
	cfg := config.Global()
	session.Config = cfg

	if cfg.Server.Model != "" && cfg.Server.Model != session.Model {
		session.Model = cfg.Server.Model
		if session.Client != nil {
			session.Client.SetModel(cfg.Server.Model)
		}
		fmt.Printf("%s %s\n", commandStyle.Render("[Switched to]"), session.Model)
	}
	UsePalette(cfg.UI.Theme)

	fmt.Println(commandStyle.Render("[Config reloaded]"))
	return true, nil
}

func handleModelsCommand(session *ChatSession) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := session.Client.ListModels(ctx)
	if err != nil {
		return true, formatCLIError(err)
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull llama3.2")
		return true, nil
	}

	fmt.Println("Installed models:")
	for i := range models {
		marker := "  "
		if models[i].Name == session.Model || models[i].Name == session.Model+":latest" {
			marker = "* "
		}
		fmt.Printf("  %s%s %s\n", marker, util.PadRight(models[i].Name, 24), models[i].FormatSize())
	}
	return true, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func printWelcome(session *ChatSession) {
	fmt.Println(bannerStyle.Render("CRTCHAT") + infoStyle.Render("  line mode"))
	fmt.Printf("%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(session.Model))
	fmt.Println(infoStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

func printHelp() {
	fmt.Println(bannerStyle.Render("Commands"))
	fmt.Println("  /help, /h        Show this help")
	fmt.Println("  /clear, /c       Clear conversation history")
	fmt.Println("  /model [name]    Show or switch model")
	fmt.Println("  /models          List installed models")
	fmt.Println("  /status, /s      Show session statistics")
	fmt.Println("  /reload, /r      Re-read the config file")
	fmt.Println("  /quit, /q        Exit chat")
	fmt.Println()
	fmt.Println("  Ctrl+C cancels the current response, Ctrl+D exits.")
}

func printStatus(session *ChatSession) {
	fmt.Println(bannerStyle.Render("Session"))
	fmt.Printf("  Model:     %s\n", session.Model)
	fmt.Printf("  Turns:     %d\n", session.Turns)
	fmt.Printf("  Tokens:    %d\n", session.TotalTokens)
	fmt.Printf("  Elapsed:   %s\n", time.Since(session.StartTime).Round(time.Second))
	fmt.Printf("  Messages:  %d\n", session.Conversation.Len())
}

func printExitSummary(session *ChatSession) {
	if session.Quiet || session.Turns == 0 {
		return
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf(
		"Session: %d turns, %d tokens, %s",
		session.Turns,
		session.TotalTokens,
		time.Since(session.StartTime).Round(time.Second))))
}
