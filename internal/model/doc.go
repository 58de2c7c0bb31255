// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, reasoning, and citations.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and the
//     remote session/group binding
//   - Message: Single message with role, content, optional reasoning and
//     optional citations
//   - Reasoning: Thinking text plus the frozen thinking duration in seconds
//   - Citations: Search targets and deduplicated search results
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Create a new conversation:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
package model
