// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for kimi-tui.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdAuth
	CmdConfig
	CmdList
	CmdExport
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	Model    string
	Proxy    bool
	NoProxy  bool
	Search   bool
	NoSearch bool
	Research bool
	Resume   string // session ID to resume, or "last"

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `kimi-tui - terminal client for the Kimi assistant

Usage:
  kimi-tui                     Start TUI (default)
  kimi-tui ask "question"      Ask a single question
  kimi-tui chat                Interactive chat (REPL)
  kimi-tui auth [subcommand]   Manage the access token
  kimi-tui config [show|set]   Configuration
  kimi-tui list                List saved conversations
  kimi-tui export <id>         Export a conversation as markdown
  kimi-tui status              Show connection and token status
  kimi-tui version             Show version information

Auth Commands:
  kimi-tui auth                Store an access token (prompts, no echo)
  kimi-tui auth status         Show whether a token is stored
  kimi-tui auth delete         Remove the stored token

Config Commands:
  kimi-tui config show         Show current configuration
  kimi-tui config get <key>    Get a configuration value
  kimi-tui config set <key> <value>
  kimi-tui config path         Show configuration file path
  kimi-tui config reset        Reset to defaults

Interactive Commands (during chat):
  /new                Start a new conversation
  /list               List saved conversations
  /switch <id>        Switch to a saved conversation
  /delete <id>        Delete a conversation
  /export [id]        Export conversation as markdown
  /help               Show available commands
  /quit               Exit chat

Global Flags:
  --model NAME        Model to use: k1 (reasoning) or kimi
  --proxy             Route requests through the configured proxy
  --no-proxy          Connect directly, skipping the proxy
  --search            Enable web search (default)
  --no-search         Disable web search
  --research          Enable research mode
  --resume ID         Resume the conversation bound to a session ID
                      (use --resume=last for the most recent one)
  -q, --quiet         Minimal output
  -v, --verbose       Debug output

Examples:
  kimi-tui ask "What is the boiling point of lead?"
  kimi-tui ask --model kimi --no-search "Write a haiku"
  kimi-tui chat --resume=last
  kimi-tui export 4f2c1a > conversation.md

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("kimi-tui version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split out from Parse for tests.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.Join(positionals(remaining), " ")
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "auth", "token":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdAuth, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "list", "ls", "conversations":
		return CmdList, parsedArgs

	case "export":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdExport, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown word: treat the whole line as an ask query.
		parsedArgs.Query = strings.Join(append([]string{cmd}, positionals(remaining)...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args
	parsedArgs.Search = true

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--proxy":
			parsedArgs.Proxy = true
		case "--no-proxy":
			parsedArgs.NoProxy = true
		case "--search":
			parsedArgs.Search = true
			parsedArgs.NoSearch = false
		case "--no-search":
			parsedArgs.NoSearch = true
			parsedArgs.Search = false
		case "--research":
			parsedArgs.Research = true
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--resume":
			if i+1 < len(args) {
				i++
				parsedArgs.Resume = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--resume="):
				parsedArgs.Resume = strings.TrimPrefix(arg, "--resume=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// positionals filters out anything that still looks like a flag.
func positionals(args []string) []string {
	var out []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			out = append(out, a)
		}
	}
	return out
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
