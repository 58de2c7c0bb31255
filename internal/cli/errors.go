// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit code mapping for CLI commands.
//
// Handlers ALWAYS return errors; the caller decides how to display them
// and which exit code to use.
package cli

import (
	"errors"

	"github.com/jeranaias/kimi-tui/internal/config"
	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/security"
	"github.com/jeranaias/kimi-tui/internal/storage"
)

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration error
	ExitConfigError = 3
	// ExitAuthError indicates an authentication failure
	ExitAuthError = 4
	// ExitNetworkError indicates a network or remote API error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// UsageError marks an error caused by invalid command usage.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var timeoutErr *kimi.TimeoutError
	if errors.As(err, &timeoutErr) {
		return ExitTimeoutError
	}

	switch {
	case errors.Is(err, kimi.ErrNotConfigured),
		errors.Is(err, kimi.ErrAuthFailed),
		errors.Is(err, security.ErrNoToken),
		errors.Is(err, security.ErrDecryptionFailed):
		return ExitAuthError

	case errors.Is(err, storage.ErrConversationNotFound),
		errors.Is(err, kimi.ErrSessionNotFound):
		return ExitNotFoundError

	case errors.Is(err, kimi.ErrRateLimited),
		errors.Is(err, kimi.ErrProxyUnavailable):
		return ExitNetworkError
	}

	var remoteErr *kimi.RemoteError
	if errors.As(err, &remoteErr) {
		return ExitNetworkError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}
	if errors.Is(err, config.ErrUnknownKey) {
		return ExitConfigError
	}

	return ExitGeneralError
}
