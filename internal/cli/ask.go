// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask
// Short:   Ask a single question and stream the answer
//
// Examples:
//   kimi-tui ask "What is the boiling point of lead?"
//   kimi-tui ask --model kimi --no-search "Write a haiku"
//   kimi-tui ask --resume=last "And in Fahrenheit?"
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jeranaias/kimi-tui/internal/render"
)

// suggestionWait bounds how long a one-shot command waits for the
// follow-up prompts that arrive on a background fetch.
const suggestionWait = 2 * time.Second

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	if args.Query == "" {
		return &UsageError{Message: `usage: kimi-tui ask "question"`}
	}

	renderer := render.NewRenderer(os.Stdout).
		WithTheme(render.NewTheme("auto")).
		WithWidth(GetTerminalWidth())
	if args.Quiet {
		renderer = renderer.WithThinking(false).WithCitations(false)
	}

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

	// Ctrl+C aborts the exchange; the client bounds the request phase,
	// so an open stream is free to take its time.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := deps.Controller.Send(ctx, args.Query); err != nil {
		return err
	}

	if !args.Quiet {
		select {
		case prompts := <-suggestions:
			fmt.Print(renderer.Suggestions(prompts))
		case <-time.After(suggestionWait):
		}
	}
	return nil
}
