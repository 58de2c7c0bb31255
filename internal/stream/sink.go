// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import "github.com/jeranaias/kimi-tui/internal/model"

// =============================================================================
// RENDER PATCHES
// =============================================================================

// Patch is one incremental presentation update produced while a response
// streams in. Patches are presentation-neutral: the assembler knows
// nothing about what renders them, and a sink receives them in order.
type Patch interface {
	isPatch()
}

// AppendContent adds text to the visible response.
type AppendContent struct {
	Text string
}

// BeginThinking opens the reasoning section. Receivers that show a live
// elapsed-time indicator start their own ticker on this patch.
type BeginThinking struct{}

// AppendThinking adds text to the reasoning section.
type AppendThinking struct {
	Text string
}

// FinishThinking closes the reasoning section with the frozen duration
// in whole seconds.
type FinishThinking struct {
	Duration int
}

// ShowCitations materializes the citations panel. It is emitted at most
// once per response, when both targets and results have arrived.
type ShowCitations struct {
	Targets []model.SearchTarget
	Results []model.SearchResult
}

// Done marks the end of the stream.
type Done struct{}

func (AppendContent) isPatch()  {}
func (BeginThinking) isPatch()  {}
func (AppendThinking) isPatch() {}
func (FinishThinking) isPatch() {}
func (ShowCitations) isPatch()  {}
func (Done) isPatch()           {}

// =============================================================================
// SINK
// =============================================================================

// Sink receives patches as the response streams in.
type Sink interface {
	Apply(Patch)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Patch)

// Apply implements Sink.
func (f SinkFunc) Apply(p Patch) {
	f(p)
}

// NopSink discards every patch. Useful when only the final assembled
// message is wanted.
var NopSink Sink = SinkFunc(func(Patch) {})
