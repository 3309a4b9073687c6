package session

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/ot"
	"github.com/coedit/coedit/transcript"
)

// Conn is the narrow surface the coordinator needs from the transport: an
// identity and a way to deliver one message. The websocket frontend wraps
// its connections with this; tests use channel-backed fakes.
type Conn interface {
	ID() uuid.UUID
	Send(msg commons.Message) error
}

// Engine is the operational-transformation engine the coordinator drives.
// The coordinator is its sole caller; Receive is the only mutating entry
// point and returns (nil, nil) when the operation was subsumed and there
// is nothing to commit.
type Engine interface {
	Snapshot() (content string, revision int)
	History(from, to int) [][]string
	Receive(base int, payload []string, sel *commons.Selection) (*ot.Commit, error)
}

// Action names what a connection is asking permission for.
type Action string

// ActionWrite covers operation submissions and selection updates.
const ActionWrite Action = "write"

// Permission decides whether a connection may perform an action. It may
// block (consult another service); the coordinator holds the document
// closed while it does, so no other operation can slip between the check
// and the commit.
type Permission func(ctx context.Context, id uuid.UUID, action Action) (bool, error)

// AllowAll is the default permission predicate.
func AllowAll(context.Context, uuid.UUID, Action) (bool, error) {
	return true, nil
}

// CompleteHook runs after an operation has been committed, acknowledged
// and broadcast. The coordinator waits for it to return before accepting
// the next message from the same connection, which is what releases any
// transport back-pressure. Errors and panics are logged and otherwise
// treated as completion.
type CompleteHook func(id uuid.UUID) error

// EventHook receives out-of-band sideData payloads. These bypass the
// permission check and the engine entirely.
type EventHook func(id uuid.UUID, data json.RawMessage) error

// Publisher mirrors outbound session events, e.g. onto a Redis channel
// for relay processes. Nil disables mirroring.
type Publisher interface {
	Publish(ctx context.Context, msg commons.Message) error
}

// Default timings; both can be overridden in Config.
const (
	// DefaultAckDelay is how long a lone author's ack is held back so
	// their editor can batch further edits into the next submission.
	DefaultAckDelay = 500 * time.Millisecond

	// DefaultResyncDelay is how long to wait before pushing a forced
	// snapshot to a connection whose operation failed, so the push does
	// not race the failure still unwinding on the client.
	DefaultResyncDelay = 100 * time.Millisecond
)

// Config carries everything pluggable about a coordinator.
type Config struct {
	// AdaptiveAck delays acks by AckDelay while exactly one participant
	// is registered. See ackScheduler for the exact policy.
	AdaptiveAck bool
	AckDelay    time.Duration

	// ResyncDelay is the pause before a forced resync snapshot.
	ResyncDelay time.Duration

	Permission   Permission
	CompleteHook CompleteHook
	EventHook    EventHook

	// Recorder receives one transcript entry per committed operation.
	// Nil disables the transcript.
	Recorder transcript.Recorder

	// Publisher mirrors outbound events. Nil disables mirroring.
	Publisher Publisher

	// Logger defaults to a discard logger; set the level to debug for
	// per-commit tracing.
	Logger *logrus.Logger
}

// withDefaults fills in the zero values.
func (c Config) withDefaults() Config {
	if c.AckDelay == 0 {
		c.AckDelay = DefaultAckDelay
	}
	if c.ResyncDelay == 0 {
		c.ResyncDelay = DefaultResyncDelay
	}
	if c.Permission == nil {
		c.Permission = AllowAll
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return c
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
