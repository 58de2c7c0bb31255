// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the chat view.
package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	chatctl "github.com/jeranaias/kimi-tui/internal/chat"
	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/model"
	"github.com/jeranaias/kimi-tui/internal/render"
	"github.com/jeranaias/kimi-tui/internal/storage"
)

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed response
	StateList                   // Conversation list overlay
)

// starterPrompts seed the welcome screen before the first exchange.
var starterPrompts = []string{
	"What can you help me with?",
	"Summarize today's top AI news",
	"Explain context windows like I'm five",
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state  State
	keyMap KeyMap

	width  int
	height int
	ready  bool

	controller *chatctl.Controller
	cfg        *config.Config

	theme    *render.Theme
	renderer *render.Renderer

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	// Rendered blocks of the committed transcript.
	transcript []string

	// Live streaming segment, folded from patches. Plain strings: the
	// model is copied by value on every update.
	thinking        bool
	thinkingStart   time.Time
	thinkingElapsed int
	frozenDuration  int
	liveThinking    string
	liveContent     string
	liveCitations   string

	suggestions []string
	suggestIdx  int

	// Conversation list overlay.
	metas     []storage.ConversationMeta
	listIndex int

	cancelStream context.CancelFunc
	errText      string
}

// New creates the chat view model.
func New(controller *chatctl.Controller, cfg *config.Config) Model {
	theme := render.NewTheme(cfg.UI.Theme)

	ta := textarea.New()
	ta.Placeholder = "Ask Kimi anything..."
	ta.Prompt = "> "
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"})

	m := Model{
		state:      StateReady,
		keyMap:     DefaultKeyMap(),
		controller: controller,
		cfg:        cfg,
		theme:      theme,
		renderer: render.NewRenderer(nopWriter{}).
			WithTheme(theme).
			WithThinking(cfg.UI.ShowThinking).
			WithCitations(cfg.UI.ShowCitations),
		input: ta,
		spin:  sp,
	}
	m.rebuildTranscript()
	return m
}

// nopWriter satisfies the renderer's writer; the TUI only uses its
// string-returning helpers.
type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// rebuildTranscript re-renders the committed conversation into blocks.
func (m *Model) rebuildTranscript() {
	m.transcript = m.transcript[:0]
	conv := m.controller.Current()
	for _, msg := range conv.Messages {
		m.transcript = append(m.transcript, m.renderer.Message(msg))
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd runs one exchange on the controller. Patches stream into the
// program through the attached sink while this command blocks. The
// context is cancel-only: the client bounds the request phase itself,
// and an open stream must not be deadlined out from under a slow reply.
func (m *Model) sendCmd(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	controller := m.controller
	return func() tea.Msg {
		defer cancel()
		return SendDoneMsg{Err: controller.Send(ctx, text)}
	}
}

// thinkTickCmd drives the presentational thinking counter at 1s.
func thinkTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return thinkTickMsg(t)
	})
}

// =============================================================================
// STREAM PATCH FOLDING
// =============================================================================

// liveSegment renders the in-flight response below the transcript.
func (m *Model) liveSegment() string {
	var b strings.Builder

	b.WriteString(m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()))
	b.WriteString("\n")

	if m.cfg.UI.ShowThinking && m.liveThinking != "" {
		header := "Thinking..."
		if m.thinking {
			header = m.spin.View() + " Thinking... " + formatSeconds(m.thinkingElapsed)
		} else if m.frozenDuration > 0 {
			header = "Thought for " + formatSeconds(m.frozenDuration)
		}
		b.WriteString(m.theme.ThinkingHeader.Render(header))
		b.WriteString("\n")
		b.WriteString(m.theme.Thinking.Render(m.liveThinking))
		b.WriteString("\n\n")
	} else if m.thinking {
		b.WriteString(m.theme.ThinkingHeader.Render(
			m.spin.View() + " Thinking... " + formatSeconds(m.thinkingElapsed)))
		b.WriteString("\n")
	}

	if m.liveCitations != "" {
		b.WriteString(m.liveCitations)
	}

	if m.liveContent != "" {
		b.WriteString(m.liveContent)
	} else if !m.thinking && m.liveThinking == "" && m.liveCitations == "" {
		b.WriteString(m.spin.View() + " " + m.theme.Muted.Render("waiting for response"))
	}

	return b.String()
}

// resetLive clears the streaming segment state.
func (m *Model) resetLive() {
	m.thinking = false
	m.thinkingElapsed = 0
	m.frozenDuration = 0
	m.liveThinking = ""
	m.liveContent = ""
	m.liveCitations = ""
	m.cancelStream = nil
}

func formatSeconds(n int) string {
	return strconv.Itoa(n) + "s"
}
