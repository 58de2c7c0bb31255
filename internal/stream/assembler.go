// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/kimi-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// ReadError is returned when the transport fails mid-stream. Partial holds
// everything assembled before the failure so callers can persist it.
type ReadError struct {
	Partial *Result
	Err     error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("stream read failed: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of folding one response stream.
type Result struct {
	// Message is the assembled assistant message. Thinking is set only
	// when reasoning text arrived; Search only when results arrived.
	Message *model.Message

	// GroupID is the first group ID seen on the stream, if any.
	GroupID string

	// DecodeFailures counts lines that were not valid JSON. They are
	// skipped, never fatal.
	DecodeFailures int
}

// =============================================================================
// PHASES
// =============================================================================

// phase tracks where a streaming response currently is. A response starts
// notThinking, may enter thinking when reasoning text arrives, and moves
// to completed at the first visible token. Once completed it never goes
// back: late reasoning text still accumulates but the frozen duration and
// the closed reasoning section stay as they are.
type phase int

const (
	phaseNotThinking phase = iota
	phaseThinking
	phaseCompleted
)

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler folds classified events into a single assistant message,
// emitting render patches along the way.
type Assembler struct {
	sink Sink

	// now is the clock, replaceable for deterministic duration tests.
	now func() time.Time

	phase          phase
	content        strings.Builder
	thought        strings.Builder
	thinkStart     time.Time
	duration       int
	durationFrozen bool

	groupID string

	targets        []model.SearchTarget
	results        []model.SearchResult
	seenURLs       map[string]bool
	citationsShown bool

	decodeFailures int
}

// NewAssembler creates an assembler that reports patches to sink.
// A nil sink discards patches.
func NewAssembler(sink Sink) *Assembler {
	if sink == nil {
		sink = NopSink
	}
	return &Assembler{
		sink:     sink,
		now:      time.Now,
		seenURLs: make(map[string]bool),
	}
}

// WithClock replaces the assembler's clock.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Run consumes the body until EOF and returns the assembled result.
// A mid-stream transport failure returns a *ReadError carrying the
// partial result; per-line decode failures are counted, not returned.
func (a *Assembler) Run(body io.Reader) (*Result, error) {
	scanner := NewLineScanner(body)
	for {
		line, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ReadError{Partial: a.finalize(), Err: err}
		}
		a.HandleLine(line, scanner.Residual())
	}

	result := a.finalize()
	a.sink.Apply(Done{})
	return result, nil
}

// HandleLine folds one payload line into the response. Residual lines,
// the unterminated tail of a stream, only contribute completion text.
func (a *Assembler) HandleLine(line string, residual bool) {
	ev, err := ParseEvent(line)
	if err != nil {
		a.decodeFailures++
		return
	}
	if residual && ev.Kind != KindCompletion {
		return
	}
	a.handleEvent(ev)
}

// handleEvent applies one classified event.
func (a *Assembler) handleEvent(ev Event) {
	// Any record may carry the group ID; the first one wins.
	if ev.GroupID != "" && a.groupID == "" {
		a.groupID = ev.GroupID
	}

	switch ev.Kind {
	case KindSearchResults:
		a.addResults(ev.Results)
	case KindSearchTargets:
		// Targets replace wholesale; the latest set describes the search.
		a.targets = ev.Targets
	case KindReasoning:
		a.addReasoning(ev.Text)
	case KindCompletion:
		a.addCompletion(ev.Text)
	}

	a.maybeShowCitations()
}

// addResults merges new search results, deduplicating by URL against
// everything accumulated so far.
func (a *Assembler) addResults(results []model.SearchResult) {
	for _, r := range results {
		if a.seenURLs[r.URL] {
			continue
		}
		a.seenURLs[r.URL] = true
		a.results = append(a.results, r)
	}
}

// addReasoning appends thinking text, entering the thinking phase and
// starting the duration clock on the first chunk.
func (a *Assembler) addReasoning(text string) {
	if a.phase == phaseNotThinking {
		a.phase = phaseThinking
		a.thinkStart = a.now()
		a.sink.Apply(BeginThinking{})
	}
	a.thought.WriteString(text)
	a.sink.Apply(AppendThinking{Text: text})
}

// addCompletion appends visible response text. The first completion chunk
// freezes the thinking duration.
func (a *Assembler) addCompletion(text string) {
	if a.phase == phaseThinking {
		a.freezeDuration()
		a.sink.Apply(FinishThinking{Duration: a.duration})
	}
	a.phase = phaseCompleted
	a.content.WriteString(text)
	a.sink.Apply(AppendContent{Text: text})
}

// freezeDuration fixes the persisted thinking duration at whole elapsed
// seconds, rounded down. It only ever fires once.
func (a *Assembler) freezeDuration() {
	if a.durationFrozen {
		return
	}
	a.duration = int(a.now().Sub(a.thinkStart) / time.Second)
	a.durationFrozen = true
}

// maybeShowCitations materializes the citations panel once both targets
// and results are present.
func (a *Assembler) maybeShowCitations() {
	if a.citationsShown || len(a.results) == 0 || len(a.targets) == 0 {
		return
	}
	a.citationsShown = true
	a.sink.Apply(ShowCitations{
		Targets: append([]model.SearchTarget(nil), a.targets...),
		Results: append([]model.SearchResult(nil), a.results...),
	})
}

// finalize builds the result from everything accumulated. A stream that
// ends while still thinking freezes the duration at end of stream.
func (a *Assembler) finalize() *Result {
	if a.phase == phaseThinking {
		a.freezeDuration()
	}

	msg := model.NewAssistantMessage(a.content.String())

	if thought := a.thought.String(); thought != "" {
		msg.Thinking = &model.Reasoning{
			Text:     thought,
			Duration: a.duration,
		}
	}

	if len(a.results) > 0 {
		msg.Search = &model.Citations{
			Targets: append([]model.SearchTarget(nil), a.targets...),
			Results: append([]model.SearchResult(nil), a.results...),
		}
	}

	return &Result{
		Message:        msg,
		GroupID:        a.groupID,
		DecodeFailures: a.decodeFailures,
	}
}
