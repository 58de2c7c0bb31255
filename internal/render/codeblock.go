// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightCode applies syntax highlighting to code for terminal output.
// Returns the code unchanged when highlighting fails.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// MARKDOWN CODE BLOCK PARSER
// =============================================================================

// HighlightFences replaces fenced code blocks in markdown-ish text with
// syntax-highlighted versions. Used by the plain renderer when the full
// markdown pipeline is off; the language tag after ``` selects the lexer.
func HighlightFences(text string, profile termenv.Profile) string {
	if profile == termenv.Ascii {
		return text
	}

	lines := strings.Split(text, "\n")
	var result []string
	var inCodeBlock bool
	var codeLines []string
	var language string

	flush := func() {
		code := strings.Join(codeLines, "\n")
		result = append(result, renderFence(code, language))
		codeLines = nil
		language = ""
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inCodeBlock {
				flush()
				inCodeBlock = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCodeBlock = true
			}
			continue
		}
		if inCodeBlock {
			codeLines = append(codeLines, line)
		} else {
			result = append(result, line)
		}
	}

	// Unclosed fence at end of text
	if inCodeBlock && len(codeLines) > 0 {
		flush()
	}

	return strings.Join(result, "\n")
}

// renderFence highlights one code block and frames it.
func renderFence(code, language string) string {
	highlighted := HighlightCode(strings.TrimRight(code, "\n"), language)

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#3A3A3A"}).
		Padding(0, 1)

	if language != "" {
		badge := lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}).
			Render(language)
		return frame.Render(badge + "\n" + highlighted)
	}
	return frame.Render(highlighted)
}
