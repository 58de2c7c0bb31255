// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print a single value
//   set <key> <value>   Set a configuration value
//   path                Show configuration file path
//   reset               Reset to default configuration
//
// Examples:
//   kimi-tui config show
//   kimi-tui config set chat.model kimi
//   kimi-tui config set api.use_proxy true
//   kimi-tui config set ui.theme dark
package cli

import (
	"fmt"

	"github.com/jeranaias/kimi-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow()
	case "get":
		if args.ConfigKey == "" {
			return &UsageError{Message: "usage: kimi-tui config get <key>"}
		}
		return handleConfigGet(args.ConfigKey)
	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return &UsageError{Message: "usage: kimi-tui config set <key> <value>"}
		}
		return handleConfigSet(args.ConfigKey, args.ConfigVal)
	case "path":
		return handleConfigPath()
	case "reset":
		return handleConfigReset()
	default:
		return &UsageError{Message: fmt.Sprintf("unknown config subcommand: %s", args.Subcommand)}
	}
}

// handleConfigShow prints every key with its current value.
func handleConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println(welcomeStyle.Render("kimi-tui configuration"))
	fmt.Println()
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %s %v\n",
			infoStyle.Render(fmt.Sprintf("%-22s", key)),
			commandStyle.Render(fmt.Sprintf("%v", value)))
	}
	return nil
}

func handleConfigGet(key string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", value)
	return nil
}

func handleConfigSet(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("%s %s = %s\n", commandStyle.Render("[OK]"), key, value)
	return nil
}

func handleConfigPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func handleConfigReset() error {
	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println(commandStyle.Render("[OK] Configuration reset to defaults"))
	return nil
}
