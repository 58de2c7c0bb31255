// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for kimi-tui.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrKeyNotFound is returned when a key has no stored value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrStoreClosed is returned when the store has been closed.
	ErrStoreClosed = errors.New("store closed")
)

// =============================================================================
// KV STORE
// =============================================================================

// KV is a flat string-keyed store of JSON blobs backed by SQLite.
// All application state (conversations, the current-conversation pointer,
// the suggestion cache) lives in one kv table, one value per key.
type KV struct {
	db     *sql.DB
	closed bool
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// OpenKV opens (or creates) the store at the given path.
func OpenKV(path string) (*KV, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Single writer; the TUI and background fetches share one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure store: %w", err)
		}
	}
	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &KV{db: db}, nil
}

// DefaultKVPath returns the default store location (~/.kimi-tui/state.db).
func DefaultKVPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".kimi-tui", "state.db"), nil
}

// Get returns the value stored under key.
func (s *KV) Get(key string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *KV) Put(key string, value []byte) error {
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(key string) error {
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// Keys returns all keys with the given prefix, ordered by key.
func (s *KV) Keys(prefix string) ([]string, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.Query(
		"SELECT key FROM kv WHERE key LIKE ? || '%' ORDER BY key", prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetJSON unmarshals the value stored under key into v.
func (s *KV) GetJSON(key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PutJSON marshals v and stores it under key.
func (s *KV) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

// Close releases the underlying database.
func (s *KV) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
