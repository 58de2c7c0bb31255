// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Update loop for the chat view.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kimi-tui/internal/render"
	"github.com/jeranaias/kimi-tui/internal/stream"
	"github.com/jeranaias/kimi-tui/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PatchMsg:
		return m.handlePatch(msg.Patch)

	case SendDoneMsg:
		return m.handleSendDone(msg)

	case SuggestionsMsg:
		m.suggestions = msg.Prompts
		m.suggestIdx = 0
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case thinkTickMsg:
		if m.thinking {
			m.thinkingElapsed = int(time.Since(m.thinkingStart).Seconds())
			m.refreshViewport()
			return m, thinkTickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			m.refreshViewport()
			return m, cmd
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleResize lays out the viewport and input for a new size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	inputHeight := 3
	statusHeight := 1
	vpHeight := msg.Height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 2)
	m.renderer = m.renderer.WithWidth(msg.Width)

	m.rebuildTranscript()
	m.refreshViewport()
	return m, nil
}

// handleConfigReload swaps in a changed on-disk configuration: theme and
// renderer are rebuilt and the transcript re-rendered under them.
func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	m.cfg = msg.Config
	m.theme = render.NewTheme(msg.Config.UI.Theme)
	m.renderer = render.NewRenderer(nopWriter{}).
		WithTheme(m.theme).
		WithThinking(msg.Config.UI.ShowThinking).
		WithCitations(msg.Config.UI.ShowCitations)
	if m.width > 0 {
		m.renderer = m.renderer.WithWidth(m.width)
	}
	m.rebuildTranscript()
	m.refreshViewport()
	return m, nil
}

// handleKey dispatches key presses by state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case StateList:
		return m.handleListKey(msg)
	case StateStreaming:
		if key.Matches(msg, m.keyMap.Cancel) {
			if m.cancelStream != nil {
				m.cancelStream()
			}
			return m, nil
		}
		// Scrolling stays available while streaming.
		if key.Matches(msg, m.keyMap.PageUp) || key.Matches(msg, m.keyMap.PageDown) {
			return m.updateComponents(msg)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewChat):
		m.controller.NewConversation()
		m.transcript = nil
		m.suggestions = nil
		m.errText = ""
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.ListChats):
		metas, err := m.controller.List()
		if err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.metas = metas
		m.listIndex = 0
		m.state = StateList
		return m, nil

	case key.Matches(msg, m.keyMap.Suggestion):
		if prompts := m.currentSuggestions(); len(prompts) > 0 {
			m.input.SetValue(prompts[m.suggestIdx%len(prompts)])
			m.input.CursorEnd()
			m.suggestIdx++
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleListKey drives the conversation list overlay.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Back):
		m.state = StateReady
		return m, nil

	case msg.String() == "up" || msg.String() == "k":
		if m.listIndex > 0 {
			m.listIndex--
		}
		return m, nil

	case msg.String() == "down" || msg.String() == "j":
		if m.listIndex < len(m.metas)-1 {
			m.listIndex++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if m.listIndex < len(m.metas) {
			if _, err := m.controller.SwitchTo(m.metas[m.listIndex].ID); err != nil {
				m.errText = err.Error()
			} else {
				m.rebuildTranscript()
				m.suggestions = nil
			}
		}
		m.state = StateReady
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		if m.listIndex < len(m.metas) {
			if err := m.controller.Delete(m.metas[m.listIndex].ID); err != nil {
				m.errText = err.Error()
			}
			metas, err := m.controller.List()
			if err == nil {
				m.metas = metas
			}
			if m.listIndex >= len(m.metas) && m.listIndex > 0 {
				m.listIndex--
			}
			m.rebuildTranscript()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.DeleteAll):
		if err := m.controller.DeleteAll(); err != nil {
			m.errText = err.Error()
		}
		m.metas = nil
		m.transcript = nil
		m.state = StateReady
		m.refreshViewport()
		return m, nil
	}

	return m, nil
}

// submit sends the typed message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := util.NormalizeInput(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.input.Reset()
	m.suggestions = nil
	m.errText = ""
	m.state = StateStreaming
	m.resetLive()

	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.sendCmd(text), m.spin.Tick)
}

// handlePatch folds one stream patch into the live segment.
func (m Model) handlePatch(p stream.Patch) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch patch := p.(type) {
	case stream.BeginThinking:
		m.thinking = true
		m.thinkingStart = time.Now()
		m.thinkingElapsed = 0
		cmd = thinkTickCmd()
	case stream.AppendThinking:
		m.liveThinking += patch.Text
	case stream.FinishThinking:
		m.thinking = false
		m.frozenDuration = patch.Duration
	case stream.AppendContent:
		m.thinking = false
		m.liveContent += patch.Text
	case stream.ShowCitations:
		m.liveCitations = m.renderer.Citations(patch.Targets, patch.Results)
	case stream.Done:
		// Final state is committed on SendDoneMsg.
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, cmd
}

// handleSendDone commits the exchange and returns to ready state.
func (m Model) handleSendDone(msg SendDoneMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	if msg.Err != nil {
		m.errText = msg.Err.Error()
	}

	// Re-render from the persisted conversation: it now carries the
	// final message (or the stored partial/apology on failure).
	m.rebuildTranscript()
	m.resetLive()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// updateComponents forwards messages to the focused bubbles.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.state == StateReady {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// currentSuggestions picks fetched prompts, or starters on the welcome
// screen.
func (m *Model) currentSuggestions() []string {
	if len(m.suggestions) > 0 {
		return m.suggestions
	}
	if len(m.transcript) == 0 {
		return starterPrompts
	}
	return nil
}

// refreshViewport re-renders the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	if len(m.transcript) == 0 && m.state != StateStreaming {
		b.WriteString(m.welcomeView())
	} else {
		for i, block := range m.transcript {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(block)
		}
	}

	if m.state == StateStreaming {
		if len(m.transcript) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.liveSegment())
	}

	m.viewport.SetContent(b.String())
}
