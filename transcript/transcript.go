// Package transcript records every committed operation for replay and
// audit. The transcript is append-only and is never read back on the
// commit path; losing it does not affect document correctness.
package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/coedit/coedit/commons"
	"github.com/google/uuid"
)

// Entry is one audit record: what a connection submitted and what the
// engine committed for it.
type Entry struct {
	ConnID             uuid.UUID
	BaseRevision       int
	SubmittedOps       []string
	SubmittedSelection *commons.Selection
	CommittedOps       []string
	Revision           int
	At                 time.Time
}

// Recorder appends audit entries somewhere durable enough for the
// deployment at hand.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
}

// Memory keeps the transcript in process memory. Useful for tests and for
// deployments that only care about the transcript while the session is
// alive.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory returns an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Append adds an entry to the transcript.
func (m *Memory) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the transcript so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
