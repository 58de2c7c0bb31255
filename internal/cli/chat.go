// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   kimi-tui chat                     Start a new conversation
//   kimi-tui chat --resume=last       Continue the most recent one
//   kimi-tui chat --model kimi        Use the non-reasoning model
//
// Interactive Commands (during chat):
//   /new                Start a new conversation
//   /list               List saved conversations
//   /switch <id>        Switch to a saved conversation
//   /delete <id>        Delete a conversation
//   /export [id]        Print conversation as markdown
//   /help, /h           Show available commands
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current response
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/render"
	"github.com/jeranaias/kimi-tui/internal/storage"
	"github.com/jeranaias/kimi-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
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

// ReadInput reads a line of input with the given prompt.
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

// SaveHistory persists input history with secure permissions.
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

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive
// support.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	renderer := render.NewRenderer(os.Stdout).
		WithTheme(render.NewTheme(config.Global().UI.Theme)).
		WithWidth(GetTerminalWidth()).
		WithThinking(config.Global().UI.ShowThinking).
		WithCitations(config.Global().UI.ShowCitations)

	deps, err := OpenDeps(args, renderer)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := resumeConversation(deps, args.Resume); err != nil {
		return err
	}

	suggestions := make(chan []string, 1)
	deps.Controller.OnSuggestions(func(prompts []string) {
		select {
		case suggestions <- prompts:
		default:
		}
	})

	if !args.Quiet {
		printWelcome(deps)
	}

	// Replay a resumed transcript so the user sees where they left off.
	if conv := deps.Controller.Current(); len(conv.Messages) > 0 {
		fmt.Print(renderer.Conversation(conv))
		fmt.Println()
	}

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput(promptStyle.Render("kimi> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF (Ctrl+D) exits.
			fmt.Println()
			if !args.Quiet {
				fmt.Println(infoStyle.Render("Goodbye!"))
			}
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := handleSlashCommand(line, deps, renderer)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		sendMessage(deps, line, suggestions, renderer, args.Quiet)
	}
}

// sendMessage streams one exchange, printing follow-up suggestions when
// they arrive in time. Ctrl+C cancels the in-flight response and returns
// to the prompt; the partial answer stays persisted.
func sendMessage(deps *Deps, text string, suggestions chan []string, renderer *render.Renderer, quiet bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println()
	if err := deps.Controller.Send(ctx, text); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		return
	}

	if !quiet {
		select {
		case prompts := <-suggestions:
			fmt.Print(renderer.Suggestions(prompts))
		case <-time.After(suggestionWait):
		}
	}
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, deps *Deps, renderer *render.Renderer) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/new", "/n":
		deps.Controller.NewConversation()
		fmt.Println(commandStyle.Render("[New conversation]"))
		return true, nil

	case "/list", "/ls":
		metas, err := deps.Controller.List()
		if err != nil {
			return true, err
		}
		printConversationList(metas)
		return true, nil

	case "/switch", "/sw":
		if len(rest) == 0 {
			return true, &UsageError{Message: "usage: /switch <id>"}
		}
		conv, err := deps.Controller.SwitchTo(rest[0])
		if err != nil {
			return true, err
		}
		fmt.Printf("%s %s\n", commandStyle.Render("[Switched]"), conv.Title)
		fmt.Print(renderer.Conversation(conv))
		return true, nil

	case "/delete", "/rm":
		if len(rest) == 0 {
			return true, &UsageError{Message: "usage: /delete <id>"}
		}
		if err := deps.Controller.Delete(rest[0]); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[Deleted]"))
		return true, nil

	case "/export":
		conv := deps.Controller.Current()
		if len(rest) > 0 {
			loaded, err := deps.Store.Load(rest[0])
			if err != nil {
				return true, err
			}
			conv = loaded
		}
		fmt.Print(storage.ExportMarkdown(conv))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(deps *Deps) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("kimi-tui interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(deps.Client.Model()))
	if deps.Client.UsingProxy() {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Proxy:"),
			commandStyle.Render(deps.Config.API.ProxyEndpoint))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available slash commands.
func printChatHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/new", "Start a new conversation"},
		{"/list", "List saved conversations"},
		{"/switch <id>", "Switch to a saved conversation"},
		{"/delete <id>", "Delete a conversation"},
		{"/export [id]", "Print conversation as markdown"},
		{"/help, /h", "Show this help"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Println()
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current response, Ctrl+D exits"))
	fmt.Println()
}

// printConversationList prints stored conversation metadata.
func printConversationList(metas []storage.ConversationMeta) {
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("[No saved conversations]"))
		return
	}
	fmt.Println()
	for _, m := range metas {
		fmt.Printf("  %s  %s  %s\n",
			commandStyle.Render(m.ID),
			util.PadRight(util.TruncateWidth(m.Title, 40), 40),
			infoStyle.Render(fmt.Sprintf("%d messages, %s",
				m.MessageCount, m.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	}
	fmt.Println()
}
