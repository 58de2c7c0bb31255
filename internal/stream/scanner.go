// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import (
	"bytes"
	"io"
	"strings"
)

// readChunkSize is the read buffer size for each pull from the body.
const readChunkSize = 4 * 1024

// =============================================================================
// LINE SCANNER
// =============================================================================

// LineScanner splits a byte stream into event payload lines.
//
// The stream is a sequence of newline-delimited records, each optionally
// prefixed with "data: ". The scanner grows an internal buffer from
// arbitrary-size reads and cuts it only at '\n' bytes, so multi-byte UTF-8
// sequences are never split across returned lines regardless of how the
// transport chunks the stream. Whatever remains unterminated when the
// stream ends is returned as a final residual line.
type LineScanner struct {
	r        io.Reader
	buf      []byte
	eof      bool
	residual bool
}

// NewLineScanner creates a scanner over a response body.
func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{r: r}
}

// Next returns the next non-empty payload line with the optional "data: "
// prefix removed and surrounding whitespace trimmed. It returns io.EOF
// once the stream and any residual buffer are exhausted. Transport errors
// are returned as-is.
func (s *LineScanner) Next() (string, error) {
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := s.buf[:i]
			s.buf = s.buf[i+1:]
			if payload := extractPayload(line); payload != "" {
				s.residual = false
				return payload, nil
			}
			continue
		}

		if s.eof {
			// The unterminated tail is delivered exactly once.
			if len(s.buf) > 0 {
				payload := extractPayload(s.buf)
				s.buf = nil
				if payload != "" {
					s.residual = true
					return payload, nil
				}
			}
			return "", io.EOF
		}

		chunk := make([]byte, readChunkSize)
		n, err := s.r.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err == io.EOF {
			s.eof = true
		} else if err != nil {
			return "", err
		}
	}
}

// Residual reports whether the line most recently returned by Next came
// from the unterminated tail of the stream rather than a completed line.
func (s *LineScanner) Residual() bool {
	return s.residual
}

// extractPayload strips the optional "data: " prefix and trims whitespace.
func extractPayload(line []byte) string {
	payload := strings.TrimPrefix(string(line), "data: ")
	return strings.TrimSpace(payload)
}
