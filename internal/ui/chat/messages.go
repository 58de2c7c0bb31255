// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea message types for the chat view.
package chat

import (
	"time"

	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/stream"
)

// PatchMsg carries one streamed response patch into the update loop.
type PatchMsg struct {
	Patch stream.Patch
}

// SendDoneMsg signals that the controller finished one exchange.
type SendDoneMsg struct {
	Err error
}

// ConfigReloadedMsg carries a freshly loaded configuration after the
// config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// SuggestionsMsg carries follow-up prompts fetched after a response.
type SuggestionsMsg struct {
	Prompts []string
}

// thinkTickMsg drives the live "Thinking... Ns" counter. The displayed
// value is presentational only; the persisted duration is frozen by the
// stream assembler.
type thinkTickMsg time.Time
