// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import (
	"encoding/json"

	"github.com/jeranaias/kimi-tui/internal/model"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

// Kind identifies what an event record contributes to the response.
// Every decoded record classifies to exactly one kind; anything the
// decoder does not understand is KindUnrecognized and is carried through
// without failing the stream.
type Kind int

const (
	// KindUnrecognized is any record the decoder does not understand.
	KindUnrecognized Kind = iota
	// KindGroupID is a record whose only useful payload is a group ID.
	KindGroupID
	// KindSearchResults carries web sources found while researching.
	KindSearchResults
	// KindSearchTargets carries the queries issued while researching.
	KindSearchTargets
	// KindReasoning carries a chunk of thinking text.
	KindReasoning
	// KindCompletion carries a chunk of the visible response.
	KindCompletion
	// KindPrompt carries a suggested follow-up prompt.
	KindPrompt
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGroupID:
		return "group_id"
	case KindSearchResults:
		return "search_results"
	case KindSearchTargets:
		return "search_targets"
	case KindReasoning:
		return "reasoning"
	case KindCompletion:
		return "completion"
	case KindPrompt:
		return "prompt"
	default:
		return "unrecognized"
	}
}

// =============================================================================
// EVENT TYPE
// =============================================================================

// Event is one classified record from the stream. GroupID is orthogonal
// to the kind: any record may carry one, and the first one seen wins.
type Event struct {
	Kind    Kind
	GroupID string
	Text    string
	Results []model.SearchResult
	Targets []model.SearchTarget
}

// record is the raw wire shape of one stream line.
type record struct {
	GroupID       string               `json:"group_id"`
	Event         string               `json:"event"`
	Type          string               `json:"type"`
	Text          string               `json:"text"`
	SearchResults []model.SearchResult `json:"search_results"`
	SearchTargets []model.SearchTarget `json:"search_targets"`
}

// Wire event names.
const (
	eventReasoning  = "k1"
	eventCompletion = "cmpl"
	eventPrompt     = "chat_prompt"

	typeSearchResults = "search_results"
	typeSearchTargets = "search_targets"
)

// ParseEvent decodes one payload line into a classified event.
// A JSON parse failure is a per-line error; the stream stays usable.
func ParseEvent(line string) (Event, error) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Event{}, err
	}
	return classify(rec), nil
}

// classify maps a raw record to exactly one event kind.
func classify(rec record) Event {
	ev := Event{GroupID: rec.GroupID}

	switch {
	case rec.Event == eventReasoning && rec.Type == typeSearchResults:
		ev.Kind = KindSearchResults
		ev.Results = rec.SearchResults
	case rec.Event == eventReasoning && rec.Type == typeSearchTargets:
		ev.Kind = KindSearchTargets
		ev.Targets = rec.SearchTargets
	case rec.Event == eventReasoning && rec.Text != "":
		ev.Kind = KindReasoning
		ev.Text = rec.Text
	case rec.Event == eventCompletion && rec.Text != "":
		ev.Kind = KindCompletion
		ev.Text = rec.Text
	case rec.Event == eventPrompt && rec.Text != "":
		ev.Kind = KindPrompt
		ev.Text = rec.Text
	case rec.GroupID != "":
		ev.Kind = KindGroupID
	default:
		ev.Kind = KindUnrecognized
	}
	return ev
}
