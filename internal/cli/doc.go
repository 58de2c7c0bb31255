// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements command parsing and the non-TUI front ends:
// one-shot ask, the interactive REPL, token management, configuration,
// and conversation listing/export. The TUI lives in internal/ui.
package cli
