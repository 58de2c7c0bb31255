// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// kimi-tui.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Endpoint and caller-identity settings
//   - ChatConfig: Model and search behavior
//   - UIConfig: Presentation settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (KIMI_*)
//   - ~/.kimi-tui/config.toml
//   - ~/.kimi-tui/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Chat.Model
//	proxy := cfg.API.UseProxy
//
// A Watcher reloads the file when it changes on disk; saves are atomic so
// readers never see a half-written file.
package config
