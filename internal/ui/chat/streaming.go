// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// streaming.go - Bridge between the controller's sink and the Bubble Tea
// program.
//
// The controller streams patches on its own goroutine; tea.Program.Send
// is the only safe way into the update loop. The program does not exist
// yet when the controller is built, so the sink buffers until attached.
package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kimi-tui/internal/stream"
)

// ProgramSink forwards stream patches into a Bubble Tea program.
// Patches applied before Attach are buffered and replayed in order.
type ProgramSink struct {
	mu      sync.Mutex
	program *tea.Program
	pending []stream.Patch
}

// NewProgramSink creates an unattached sink.
func NewProgramSink() *ProgramSink {
	return &ProgramSink{}
}

// Attach binds the sink to a running program and flushes buffered
// patches.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.program = p
	s.mu.Unlock()

	for _, patch := range pending {
		p.Send(PatchMsg{Patch: patch})
	}
}

// Apply implements stream.Sink.
func (s *ProgramSink) Apply(p stream.Patch) {
	s.mu.Lock()
	program := s.program
	if program == nil {
		s.pending = append(s.pending, p)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	program.Send(PatchMsg{Patch: p})
}
