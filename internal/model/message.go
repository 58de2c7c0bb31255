// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jeranaias/kimi-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Kimi"
	default:
		return string(r)
	}
}

// =============================================================================
// REASONING TYPE
// =============================================================================

// Reasoning holds the model's thinking text for an assistant message.
// Duration is the wall-clock thinking time in whole seconds, frozen when
// the first completion token arrives. It is a persisted value, independent
// of any live elapsed-time display.
type Reasoning struct {
	Text     string `json:"text"`
	Duration int    `json:"duration"`
}

// =============================================================================
// CITATIONS TYPE
// =============================================================================

// SearchTarget is a query the model issued while researching a response.
type SearchTarget struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// UnmarshalJSON accepts either a bare query string, which is what the
// streaming API emits, or the object form used for persistence.
func (t *SearchTarget) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var query string
		if err := json.Unmarshal(data, &query); err != nil {
			return err
		}
		t.Query = query
		t.Type = ""
		return nil
	}
	type alias SearchTarget
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = SearchTarget(a)
	return nil
}

// SearchResult is a single web source consulted for a response.
type SearchResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
	SiteName string `json:"site_name,omitempty"`
}

// Citations groups the search targets and deduplicated results attached
// to an assistant message.
type Citations struct {
	Targets []SearchTarget `json:"targets,omitempty"`
	Results []SearchResult `json:"results"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Thinking is set only when the response carried non-empty reasoning text.
// Search is set only when at least one search result was collected.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Thinking  *Reasoning `json:"thinking,omitempty"`
	Search    *Citations `json:"search,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Content, maxLen)
}

// IsEmpty returns true if the message has no content, reasoning, or citations.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.Thinking == nil && m.Search == nil
}

// HasThinking reports whether the message carries reasoning text.
func (m *Message) HasThinking() bool {
	return m.Thinking != nil && m.Thinking.Text != ""
}

// HasCitations reports whether the message carries search results.
func (m *Message) HasCitations() bool {
	return m.Search != nil && len(m.Search.Results) > 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
