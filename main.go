// kimi-tui - A terminal client for the Kimi assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kimi-tui/internal/cli"
	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/kimi"
	uichat "github.com/jeranaias/kimi-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdAuth:
		exitOnError(cli.HandleAuth(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdList:
		exitOnError(cli.HandleList(args))
	case cli.CmdExport:
		exitOnError(cli.HandleExport(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// runTUI starts the Bubble Tea chat interface.
func runTUI(args cli.Args) {
	sink := uichat.NewProgramSink()

	deps, err := cli.OpenDeps(args, sink)
	if err != nil {
		exitOnError(err)
	}
	defer deps.Close()

	// Proxy health probe: an unreachable proxy falls back to direct.
	if deps.Client.UsingProxy() {
		ctx, cancel := context.WithTimeout(context.Background(), kimi.HealthTimeout)
		_ = deps.Client.CheckHealth(ctx)
		cancel()
	}

	if args.Resume == "" {
		// Reopen the last conversation by default; a fresh install
		// simply starts empty.
		if _, err := deps.Controller.Resume(); err != nil {
			deps.Controller.NewConversation()
		}
	} else if err := resumeFlag(deps, args.Resume); err != nil {
		exitOnError(err)
	}

	model := uichat.New(deps.Controller, deps.Config)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Hot-reload edits to the config file into the running program.
	if cfgPath, err := config.ConfigPathTOML(); err == nil {
		watcher, werr := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			program.Send(uichat.ConfigReloadedMsg{Config: cfg})
		})
		if werr == nil {
			if watcher.Watch() == nil {
				defer watcher.Close()
			} else {
				watcher.Close()
			}
		}
	}

	sink.Attach(program)
	deps.Controller.OnSuggestions(func(prompts []string) {
		program.Send(uichat.SuggestionsMsg{Prompts: prompts})
	})

	if _, err := program.Run(); err != nil {
		exitOnError(err)
	}
}

// resumeFlag resolves an explicit --resume value.
func resumeFlag(deps *cli.Deps, resume string) error {
	if resume == "last" {
		_, err := deps.Controller.Resume()
		return err
	}
	_, err := deps.Controller.ResumeBySessionID(resume)
	return err
}
