// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import "io"

// CollectPrompts reads a recommendation stream to completion and returns
// the suggested prompt texts in arrival order. The stream uses the same
// framing as completion streams; lines that fail to decode are skipped.
func CollectPrompts(body io.Reader) ([]string, error) {
	scanner := NewLineScanner(body)
	var prompts []string
	for {
		line, err := scanner.Next()
		if err == io.EOF {
			return prompts, nil
		}
		if err != nil {
			return prompts, &ReadError{Err: err}
		}

		ev, parseErr := ParseEvent(line)
		if parseErr != nil {
			continue
		}
		if ev.Kind == KindPrompt {
			prompts = append(prompts, ev.Text)
		}
	}
}
