// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/kimi-tui/internal/util"
)

// TitleRunes is the number of runes of the first user message kept as the
// conversation title before an ellipsis is appended.
const TitleRunes = 30

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
//
// ID is the local identity used for persistence. SessionID is the remote
// conversation ID assigned by the API when the first message is sent; it
// stays empty until a session has been created. GroupID is the response
// group reported by the first streamed response, used for suggestion
// lookups.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Remote binding
	SessionID string `json:"session_id,omitempty"`
	GroupID   string `json:"group_id,omitempty"`

	// Messages
	Messages []*Message `json:"messages"`

	// Model configuration
	Model string `json:"model"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// NewConversationWithModel creates a new conversation with a specific model.
func NewConversationWithModel(model string) *Conversation {
	conv := NewConversation()
	conv.Model = model
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds an assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastUserMessage returns the most recent user message.
func (c *Conversation) GetLastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// RemoveMessage removes a message by ID.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// GetMessageByID returns a message by its ID.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// HasSession reports whether a remote session has been created for this
// conversation.
func (c *Conversation) HasSession() bool {
	return c.SessionID != ""
}

// BindSession records the remote session ID once. Later calls with a
// different ID are ignored; the first binding wins.
func (c *Conversation) BindSession(sessionID string) {
	if c.SessionID == "" && sessionID != "" {
		c.SessionID = sessionID
		c.UpdatedAt = time.Now()
	}
}

// BindGroup records the response group ID once. The first streamed
// response that reports a group wins.
func (c *Conversation) BindGroup(groupID string) {
	if c.GroupID == "" && groupID != "" {
		c.GroupID = groupID
		c.UpdatedAt = time.Now()
	}
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// DeriveTitle returns the display title for a first message: the first
// TitleRunes runes, with "..." appended when the message is longer.
func DeriveTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= TitleRunes {
		return firstMessage
	}
	return string(runes[:TitleRunes]) + "..."
}

// updateTitle sets the title from the first user message if not yet set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			c.Title = DeriveTitle(msg.Content)
			return
		}
	}
}

// DisplayTitle returns the title, or a placeholder for unnamed conversations.
func (c *Conversation) DisplayTitle() string {
	if c.Title == "" {
		return "New chat"
	}
	return c.Title
}

// Summary returns a short single-line description for list views.
func (c *Conversation) Summary(maxWidth int) string {
	return util.TruncateWidth(c.DisplayTitle(), maxWidth)
}

// pruneOldMessages drops the oldest messages when the history exceeds
// MaxMessages. The first user message is kept so the title source survives.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	excess := len(c.Messages) - MaxMessages
	c.Messages = append(c.Messages[:1], c.Messages[1+excess:]...)
}
