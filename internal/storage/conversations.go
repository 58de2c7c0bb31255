// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for kimi-tui.
package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/kimi-tui/internal/model"
)

// =============================================================================
// KEY LAYOUT
// =============================================================================

const (
	conversationPrefix = "conversation:"
	currentKey         = "current_conversation"
)

// =============================================================================
// CONVERSATION META
// =============================================================================

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SessionID    string    `json:"session_id,omitempty"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore persists conversations in the KV store, one JSON blob
// per conversation, plus a pointer to the active conversation.
type ConversationStore struct {
	kv *KV

	// MaxConversations limits stored conversations (0 = unlimited)
	MaxConversations int
}

// NewConversationStore creates a conversation store over an open KV store.
func NewConversationStore(kv *KV) *ConversationStore {
	return &ConversationStore{
		kv:               kv,
		MaxConversations: 100,
	}
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save persists a conversation. Every chat mutation ends with a Save so a
// crash never loses more than the in-flight response.
func (s *ConversationStore) Save(conv *model.Conversation) error {
	if conv.ID == "" {
		return errors.New("conversation has no ID")
	}
	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	if err := s.kv.PutJSON(conversationPrefix+conv.ID, conv); err != nil {
		return err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return nil
}

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*model.Conversation, error) {
	data, err := s.kv.Get(conversationPrefix + id)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindBySessionID returns the conversation bound to a remote session ID.
// This backs resuming a chat from a shared session identifier.
func (s *ConversationStore) FindBySessionID(sessionID string) (*model.Conversation, error) {
	if sessionID == "" {
		return nil, ErrConversationNotFound
	}
	convs, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		if conv.SessionID == sessionID {
			return conv, nil
		}
	}
	return nil, ErrConversationNotFound
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

// List returns metadata for all saved conversations (most recent first).
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	convs, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	metas := make([]ConversationMeta, 0, len(convs))
	for _, conv := range convs {
		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.DisplayTitle(),
			SessionID:    conv.SessionID,
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: conv.MessageCount(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds conversations whose title or message content matches the
// query string (case-insensitive).
func (s *ConversationStore) Search(query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.List()
	}
	query = strings.ToLower(query)

	convs, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	var results []ConversationMeta
	for _, conv := range convs {
		if matchesQuery(conv, query) {
			results = append(results, ConversationMeta{
				ID:           conv.ID,
				Title:        conv.DisplayTitle(),
				SessionID:    conv.SessionID,
				Model:        conv.Model,
				CreatedAt:    conv.CreatedAt,
				UpdatedAt:    conv.UpdatedAt,
				MessageCount: conv.MessageCount(),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results, nil
}

func matchesQuery(conv *model.Conversation, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(conv.Title), loweredQuery) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Content), loweredQuery) {
			return true
		}
	}
	return false
}

// =============================================================================
// CURRENT CONVERSATION POINTER
// =============================================================================

// SetCurrent records the active conversation ID.
func (s *ConversationStore) SetCurrent(id string) error {
	return s.kv.Put(currentKey, []byte(id))
}

// Current returns the active conversation, or ErrConversationNotFound when
// no pointer is set or the pointed-at conversation is gone.
func (s *ConversationStore) Current() (*model.Conversation, error) {
	data, err := s.kv.Get(currentKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.Load(string(data))
}

// ClearCurrent removes the active conversation pointer.
func (s *ConversationStore) ClearCurrent() error {
	return s.kv.Delete(currentKey)
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID. The current pointer is cleared when
// it references the deleted conversation.
func (s *ConversationStore) Delete(id string) error {
	if _, err := s.Load(id); err != nil {
		return err
	}
	if err := s.kv.Delete(conversationPrefix + id); err != nil {
		return err
	}
	if data, err := s.kv.Get(currentKey); err == nil && string(data) == id {
		return s.ClearCurrent()
	}
	return nil
}

// Clear removes all saved conversations and the current pointer.
func (s *ConversationStore) Clear() error {
	keys, err := s.kv.Keys(conversationPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}
	return s.ClearCurrent()
}

// =============================================================================
// HELPERS
// =============================================================================

// loadAll returns every stored conversation, skipping corrupted entries.
func (s *ConversationStore) loadAll() ([]*model.Conversation, error) {
	keys, err := s.kv.Keys(conversationPrefix)
	if err != nil {
		return nil, err
	}

	convs := make([]*model.Conversation, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(key)
		if err != nil {
			continue
		}
		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue // Skip corrupted entries
		}
		convs = append(convs, &conv)
	}
	return convs, nil
}

// enforceLimit removes oldest conversations if over limit.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	// List is most recent first; delete from the tail.
	excess := len(metas) - s.MaxConversations
	for i := 0; i < excess; i++ {
		s.Delete(metas[len(metas)-1-i].ID)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as a Markdown document, including
// reasoning sections and citations when present.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.DisplayTitle() + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + "):\n\n")

		if msg.HasThinking() {
			sb.WriteString("> Thought for " + strconv.Itoa(msg.Thinking.Duration) + "s\n>\n")
			for _, line := range strings.Split(msg.Thinking.Text, "\n") {
				sb.WriteString("> " + line + "\n")
			}
			sb.WriteString("\n")
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if msg.HasCitations() {
			sb.WriteString("\nSources:\n")
			for _, r := range msg.Search.Results {
				sb.WriteString("- [" + r.Title + "](" + r.URL + ")\n")
			}
		}

		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}
