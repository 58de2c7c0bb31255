// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for kimi-tui.
//
// All state lives in a single flat key/value table of JSON blobs backed by
// SQLite: one entry per conversation, a pointer to the active conversation,
// and the suggestion prompt cache.
//
// # Key Types
//
//   - KV: flat string-keyed store of JSON blobs
//   - ConversationStore: conversation CRUD plus the current pointer
//   - PromptCache: suggested follow-up prompts with a 30-minute TTL
//
// # Usage
//
// Open the store and save a conversation:
//
//	kv, err := storage.OpenKV(path)
//	store := storage.NewConversationStore(kv)
//	err = store.Save(conversation)
//
// List and load conversations:
//
//	metas, err := store.List()
//	conv, err := store.Load(metas[0].ID)
//
// # Storage Location
//
// The database lives at ~/.kimi-tui/state.db by default.
package storage
