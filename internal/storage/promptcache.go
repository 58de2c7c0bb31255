// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for kimi-tui.
package storage

import (
	"errors"
	"time"
)

// =============================================================================
// PROMPT CACHE
// =============================================================================

// PromptCacheTTL is how long cached suggestion prompts stay valid.
const PromptCacheTTL = 30 * time.Minute

const promptCacheKey = "prompt_cache"

// cachedPrompts is one cache entry: the suggested follow-up prompts for a
// session/group pair and when they were fetched.
type cachedPrompts struct {
	Prompts   []string  `json:"prompts"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PromptCache caches suggested follow-up prompts per session/group pair.
// Entries expire after PromptCacheTTL. The whole cache is persisted as a
// single KV entry so it survives restarts.
type PromptCache struct {
	kv *KV

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewPromptCache creates a prompt cache over an open KV store.
func NewPromptCache(kv *KV) *PromptCache {
	return &PromptCache{kv: kv, now: time.Now}
}

// cacheKey builds the entry key for a session/group pair.
func cacheKey(sessionID, groupID string) string {
	return sessionID + "-" + groupID
}

// Get returns the cached prompts for a session/group pair, or false when
// the entry is missing or expired.
func (c *PromptCache) Get(sessionID, groupID string) ([]string, bool) {
	entries, err := c.load()
	if err != nil {
		return nil, false
	}

	entry, ok := entries[cacheKey(sessionID, groupID)]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) > PromptCacheTTL {
		return nil, false
	}
	return entry.Prompts, true
}

// Put stores prompts for a session/group pair and prunes expired entries.
func (c *PromptCache) Put(sessionID, groupID string, prompts []string) error {
	entries, err := c.load()
	if err != nil {
		return err
	}

	now := c.now()
	for key, entry := range entries {
		if now.Sub(entry.FetchedAt) > PromptCacheTTL {
			delete(entries, key)
		}
	}

	entries[cacheKey(sessionID, groupID)] = cachedPrompts{
		Prompts:   prompts,
		FetchedAt: now,
	}
	return c.kv.PutJSON(promptCacheKey, entries)
}

// Clear drops every cached entry.
func (c *PromptCache) Clear() error {
	return c.kv.Delete(promptCacheKey)
}

// load returns the cache map, treating a missing key as an empty cache.
func (c *PromptCache) load() (map[string]cachedPrompts, error) {
	entries := make(map[string]cachedPrompts)
	err := c.kv.GetJSON(promptCacheKey, &entries)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	return entries, nil
}
