// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns streamed response patches and stored messages into
// styled terminal output. It knows nothing about the TUI; the TUI has its
// own view layer and uses this package only for markdown and code blocks.
package render

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles for terminal rendering. It detects the
// terminal's color capability and adjusts accordingly.
type Theme struct {
	ColorProfile termenv.Profile
	IsDark       bool

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	Thinking       lipgloss.Style
	ThinkingHeader lipgloss.Style

	CitationTitle   lipgloss.Style
	CitationURL     lipgloss.Style
	CitationSection lipgloss.Style

	Suggestion lipgloss.Style
	Muted      lipgloss.Style
	ErrorText  lipgloss.Style
}

// NewTheme builds a theme for the current terminal. The mode argument is
// "auto", "dark", or "light".
func NewTheme(mode string) *Theme {
	profile := colorProfile()

	isDark := true
	switch mode {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		ColorProfile: profile,
		IsDark:       isDark,
	}
	t.initStyles()
	return t
}

// colorProfile returns the terminal color profile, honoring NO_COLOR.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

func (t *Theme) initStyles() {
	accent := lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	muted := lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	green := lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	red := lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(green)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(accent)

	t.Thinking = lipgloss.NewStyle().Foreground(muted).Italic(true)
	t.ThinkingHeader = lipgloss.NewStyle().Foreground(muted).Bold(true)

	t.CitationTitle = lipgloss.NewStyle().Bold(true)
	t.CitationURL = lipgloss.NewStyle().Foreground(accent).Underline(true)
	t.CitationSection = lipgloss.NewStyle().Foreground(muted).Bold(true)

	t.Suggestion = lipgloss.NewStyle().Foreground(accent)
	t.Muted = lipgloss.NewStyle().Foreground(muted)
	t.ErrorText = lipgloss.NewStyle().Foreground(red)
}
