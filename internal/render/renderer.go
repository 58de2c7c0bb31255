// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/kimi-tui/internal/model"
	"github.com/jeranaias/kimi-tui/internal/stream"
	"github.com/jeranaias/kimi-tui/internal/util"
)

// DefaultWidth is the render width when the terminal width is unknown.
const DefaultWidth = 80

// =============================================================================
// STREAMING RENDERER
// =============================================================================

// Renderer writes streamed response patches to a terminal as they arrive.
// It implements stream.Sink. Thinking text streams in a muted style,
// response text streams raw; a final markdown pass over raw text would
// reflow content the user has already read.
type Renderer struct {
	out   io.Writer
	theme *Theme
	width int

	showThinking  bool
	showCitations bool

	markdown *glamour.TermRenderer

	inThinking bool
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{
		out:           out,
		theme:         NewTheme("auto"),
		width:         DefaultWidth,
		showThinking:  true,
		showCitations: true,
	}
	r.initMarkdown()
	return r
}

// WithTheme replaces the theme.
func (r *Renderer) WithTheme(t *Theme) *Renderer {
	r.theme = t
	return r
}

// WithWidth sets the render width in columns.
func (r *Renderer) WithWidth(width int) *Renderer {
	if width > 0 {
		r.width = width
		r.initMarkdown()
	}
	return r
}

// WithThinking toggles rendering of the reasoning section.
func (r *Renderer) WithThinking(enabled bool) *Renderer {
	r.showThinking = enabled
	return r
}

// WithCitations toggles rendering of the citations panel.
func (r *Renderer) WithCitations(enabled bool) *Renderer {
	r.showCitations = enabled
	return r
}

// initMarkdown builds the glamour renderer. A nil renderer falls back to
// plain text with highlighted fences.
func (r *Renderer) initMarkdown() {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		r.markdown = nil
		return
	}
	r.markdown = md
}

// Apply implements stream.Sink.
func (r *Renderer) Apply(p stream.Patch) {
	switch patch := p.(type) {
	case stream.BeginThinking:
		if r.showThinking {
			fmt.Fprintln(r.out, r.theme.ThinkingHeader.Render("Thinking..."))
		}
		r.inThinking = true
	case stream.AppendThinking:
		if r.showThinking {
			fmt.Fprint(r.out, r.theme.Thinking.Render(patch.Text))
		}
	case stream.FinishThinking:
		if r.showThinking {
			fmt.Fprintf(r.out, "\n%s\n\n",
				r.theme.ThinkingHeader.Render(fmt.Sprintf("Thought for %ds", patch.Duration)))
		}
		r.inThinking = false
	case stream.AppendContent:
		if r.inThinking {
			// Stream ended its reasoning without a duration patch.
			fmt.Fprintln(r.out)
			r.inThinking = false
		}
		fmt.Fprint(r.out, patch.Text)
	case stream.ShowCitations:
		if r.showCitations {
			fmt.Fprint(r.out, r.Citations(patch.Targets, patch.Results))
		}
	case stream.Done:
		fmt.Fprintln(r.out)
	}
}

// =============================================================================
// STORED MESSAGE RENDERING
// =============================================================================

// Message renders a stored message in full, with markdown for assistant
// content.
func (r *Renderer) Message(msg *model.Message) string {
	var b strings.Builder

	switch msg.Role {
	case model.RoleUser:
		b.WriteString(r.theme.UserLabel.Render(msg.Role.DisplayName()))
	default:
		b.WriteString(r.theme.AssistantLabel.Render(msg.Role.DisplayName()))
	}
	b.WriteString("\n")

	if r.showThinking && msg.HasThinking() {
		b.WriteString(r.theme.ThinkingHeader.Render(
			fmt.Sprintf("Thought for %ds", msg.Thinking.Duration)))
		b.WriteString("\n")
		b.WriteString(r.theme.Thinking.Render(strings.TrimSpace(msg.Thinking.Text)))
		b.WriteString("\n\n")
	}

	if r.showCitations && msg.HasCitations() {
		b.WriteString(r.Citations(msg.Search.Targets, msg.Search.Results))
	}

	if msg.Role == model.RoleAssistant {
		b.WriteString(r.Markdown(msg.Content))
	} else {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	return b.String()
}

// Conversation renders a whole stored conversation transcript.
func (r *Renderer) Conversation(conv *model.Conversation) string {
	var b strings.Builder
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Message(msg))
	}
	return b.String()
}

// Markdown renders assistant markdown for the terminal. Falls back to
// plain text with highlighted code fences when glamour is unavailable.
func (r *Renderer) Markdown(content string) string {
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(content); err == nil {
			return rendered
		}
	}
	return HighlightFences(content, r.theme.ColorProfile) + "\n"
}

// Suggestions renders follow-up prompt chips.
func (r *Renderer) Suggestions(prompts []string) string {
	if len(prompts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.theme.Muted.Render("Suggested questions"))
	b.WriteString("\n")
	for _, p := range prompts {
		b.WriteString("  ")
		b.WriteString(r.theme.Suggestion.Render(util.TruncateWidth(p, r.width-2)))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// CITATIONS PANEL
// =============================================================================

// Citations renders the search panel: the queries the model issued and
// the deduplicated sources it found.
func (r *Renderer) Citations(targets []model.SearchTarget, results []model.SearchResult) string {
	var b strings.Builder

	if len(targets) > 0 {
		b.WriteString(r.theme.CitationSection.Render("Understanding Question"))
		b.WriteString("\n")
		for _, t := range targets {
			b.WriteString("  ")
			b.WriteString(util.TruncateWidth(t.Query, r.width-2))
			b.WriteString("\n")
		}
	}

	if len(results) > 0 {
		b.WriteString(r.theme.CitationSection.Render(
			fmt.Sprintf("Sources (%d)", len(results))))
		b.WriteString("\n")
		for i, res := range results {
			title := res.Title
			if title == "" {
				title = res.URL
			}
			b.WriteString(fmt.Sprintf("  %d. ", i+1))
			b.WriteString(r.theme.CitationTitle.Render(util.TruncateWidth(title, r.width-8)))
			b.WriteString("\n     ")
			b.WriteString(r.theme.CitationURL.Render(util.TruncateWidth(res.URL, r.width-8)))
			b.WriteString("\n")
		}
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}
