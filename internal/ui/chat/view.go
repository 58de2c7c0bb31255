// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - View rendering for the chat view.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kimi-tui/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.state == StateList {
		return m.listView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.suggestionsView())
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

// headerView renders the title bar.
func (m Model) headerView() string {
	title := m.theme.AssistantLabel.Render("kimi-tui")
	conv := m.controller.Current()
	name := conv.Title
	if name == "" {
		name = "new conversation"
	}
	line := fmt.Sprintf("%s  %s  %s",
		title,
		m.theme.Muted.Render(util.TruncateWidth(name, m.width/2)),
		m.theme.Muted.Render("["+m.cfg.Chat.Model+"]"))
	return line + "\n" + m.theme.Muted.Render(strings.Repeat("─", max(m.width, 1)))
}

// suggestionsView renders follow-up prompt chips above the input.
func (m Model) suggestionsView() string {
	prompts := m.currentSuggestions()
	if len(prompts) == 0 || m.state == StateStreaming {
		return ""
	}

	chip := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	var chips []string
	budget := m.width
	for _, p := range prompts {
		rendered := chip.Render(util.TruncateWidth(p, 40))
		budget -= lipgloss.Width(rendered)
		if budget < 0 {
			break
		}
		chips = append(chips, rendered)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, chips...) + "\n"
}

// statusView renders the bottom status line.
func (m Model) statusView() string {
	if m.errText != "" {
		return m.theme.ErrorText.Render(util.TruncateWidth(m.errText, m.width))
	}

	switch m.state {
	case StateStreaming:
		return m.theme.Muted.Render("Esc cancel · C-c quit")
	default:
		hints := "Enter send · Tab suggestions · C-n new · C-l conversations · C-c quit"
		return m.theme.Muted.Render(util.TruncateWidth(hints, m.width))
	}
}

// welcomeView fills the empty transcript with starter suggestions.
func (m Model) welcomeView() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.theme.AssistantLabel.Render("Hi, I'm Kimi."))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render("Ask me anything, or press Tab to try one of these:"))
	b.WriteString("\n\n")
	for _, p := range starterPrompts {
		b.WriteString("  ")
		b.WriteString(m.theme.Suggestion.Render(p))
		b.WriteString("\n")
	}
	return b.String()
}

// listView renders the conversation list overlay.
func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.theme.AssistantLabel.Render("Conversations"))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n\n")

	if len(m.metas) == 0 {
		b.WriteString(m.theme.Muted.Render("  No saved conversations"))
		b.WriteString("\n")
	}

	for i, meta := range m.metas {
		cursor := "  "
		line := fmt.Sprintf("%s  %s",
			util.PadRight(util.TruncateWidth(meta.Title, 40), 40),
			m.theme.Muted.Render(fmt.Sprintf("%d messages · %s",
				meta.MessageCount, meta.UpdatedAt.Local().Format("Jan 2 15:04"))))
		if i == m.listIndex {
			cursor = m.theme.Suggestion.Render("> ")
			line = m.theme.CitationTitle.Render(util.TruncateWidth(meta.Title, 40)) +
				"  " + m.theme.Muted.Render(fmt.Sprintf("%d messages · %s",
				meta.MessageCount, meta.UpdatedAt.Local().Format("Jan 2 15:04")))
		}
		b.WriteString(cursor)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Enter open · d delete · D delete all · Esc back"))
	return b.String()
}
