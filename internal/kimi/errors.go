// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kimi

import (
	"errors"
	"fmt"
	"time"
)

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the access token is not set.
	ErrNotConfigured = errors.New("Kimi access token not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired token).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrSessionNotFound indicates the remote conversation no longer exists.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProxyUnavailable indicates the local proxy did not answer its
	// health check.
	ErrProxyUnavailable = errors.New("proxy unavailable")
)

// TimeoutError reports an operation that exceeded its per-operation limit.
type TimeoutError struct {
	Op    string
	Limit time.Duration
	Err   error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Op, e.Limit)
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// RemoteError represents a non-success response from the API.
type RemoteError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Kimi API error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("Kimi API error (HTTP %d)", e.Status)
}

// Is maps well-known statuses onto the sentinel errors so callers can use
// errors.Is without inspecting status codes.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == 401 || e.Status == 403
	case ErrRateLimited:
		return e.Status == 429
	case ErrSessionNotFound:
		return e.Status == 404
	}
	return false
}
