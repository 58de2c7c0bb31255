// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"testing"

	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/security"
	"github.com/jeranaias/kimi-tui/internal/storage"
)

func TestParseArgs_Defaults(t *testing.T) {
	cmd, args := ParseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("cmd = %v, want CmdTUI", cmd)
	}
	if !args.Search {
		t.Error("search should default to enabled")
	}
}

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"tui explicit", []string{"tui"}, CmdTUI},
		{"ask", []string{"ask", "hello"}, CmdAsk},
		{"chat", []string{"chat"}, CmdChat},
		{"auth", []string{"auth"}, CmdAuth},
		{"auth alias", []string{"token", "status"}, CmdAuth},
		{"config", []string{"config", "show"}, CmdConfig},
		{"list", []string{"list"}, CmdList},
		{"list alias", []string{"ls"}, CmdList},
		{"export", []string{"export", "abc"}, CmdExport},
		{"status", []string{"status"}, CmdStatus},
		{"status alias", []string{"s"}, CmdStatus},
		{"version", []string{"version"}, CmdVersion},
		{"help", []string{"--help"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := ParseArgs(tt.args)
			if cmd != tt.want {
				t.Errorf("ParseArgs(%v) = %v, want %v", tt.args, cmd, tt.want)
			}
		})
	}
}

func TestParseArgs_AskQuery(t *testing.T) {
	_, args := ParseArgs([]string{"ask", "what", "is", "Go"})
	if args.Query != "what is Go" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseArgs_BareQueryBecomesAsk(t *testing.T) {
	cmd, args := ParseArgs([]string{"what", "is", "Go"})
	if cmd != CmdAsk {
		t.Errorf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Query != "what is Go" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseArgs_GlobalFlags(t *testing.T) {
	_, args := ParseArgs([]string{
		"--model", "kimi", "--no-search", "--research",
		"--proxy", "--resume=last", "-q", "ask", "hi",
	})
	if args.Model != "kimi" {
		t.Errorf("model = %q", args.Model)
	}
	if !args.NoSearch || args.Search {
		t.Error("no-search flag not applied")
	}
	if !args.Research {
		t.Error("research flag not applied")
	}
	if !args.Proxy {
		t.Error("proxy flag not applied")
	}
	if args.Resume != "last" {
		t.Errorf("resume = %q", args.Resume)
	}
	if !args.Quiet {
		t.Error("quiet flag not applied")
	}
}

func TestParseArgs_ModelEquals(t *testing.T) {
	_, args := ParseArgs([]string{"--model=k1", "chat"})
	if args.Model != "k1" {
		t.Errorf("model = %q", args.Model)
	}
}

func TestParseArgs_ConfigSet(t *testing.T) {
	_, args := ParseArgs([]string{"config", "set", "chat.model", "kimi"})
	if args.Subcommand != "set" || args.ConfigKey != "chat.model" || args.ConfigVal != "kimi" {
		t.Errorf("parsed = %+v", args)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Message: "bad"}, ExitUsageError},
		{"not configured", kimi.ErrNotConfigured, ExitAuthError},
		{"auth failed", &kimi.RemoteError{Status: 401}, ExitAuthError},
		{"no token", security.ErrNoToken, ExitAuthError},
		{"rate limited", &kimi.RemoteError{Status: 429}, ExitNetworkError},
		{"remote 500", &kimi.RemoteError{Status: 500}, ExitNetworkError},
		{"conversation missing", storage.ErrConversationNotFound, ExitNotFoundError},
		{"timeout", &kimi.TimeoutError{Op: "create session"}, ExitTimeoutError},
		{"generic", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
