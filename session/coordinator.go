// Package session implements the per-document coordination core: one
// Coordinator per document serializes every operation through the OT
// engine, assigns revisions, acknowledges submitters, broadcasts committed
// operations to peers and tracks ephemeral presence.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/transcript"
)

// Coordinator mediates between the connections editing one document and
// the OT engine owning its text. It is the engine's only caller, so the
// document has a single writer: the mutex covers the whole
// permission-check-through-broadcast critical section, and no two
// submissions ever see the same pre-commit state.
//
// Failures stay scoped to the connection that caused them. A denied
// permission check drops the submission silently; a malformed or rejected
// operation gets the offending connection a forced snapshot; hook errors
// and panics are logged and swallowed. Nothing that happens while
// processing one connection's event can take down another.
type Coordinator struct {
	mu     sync.Mutex
	engine Engine
	reg    *Registry
	conns  map[uuid.UUID]Conn

	acks         ackScheduler
	resyncDelay  time.Duration
	permission   Permission
	completeHook CompleteHook
	eventHook    EventHook
	recorder     transcript.Recorder
	publisher    Publisher
	logger       *logrus.Logger
}

// New returns a coordinator for one document driven by engine.
func New(engine Engine, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		engine:       engine,
		reg:          NewRegistry(),
		conns:        make(map[uuid.UUID]Conn),
		acks:         ackScheduler{adaptive: cfg.AdaptiveAck, delay: cfg.AckDelay},
		resyncDelay:  cfg.ResyncDelay,
		permission:   cfg.Permission,
		completeHook: cfg.CompleteHook,
		eventHook:    cfg.EventHook,
		recorder:     cfg.Recorder,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}

// AddParticipant registers conn into the document's broadcast group and
// sends it a snapshot of the current state. Other participants are not
// notified; a presence record is only created once the new connection
// interacts.
func (c *Coordinator) AddParticipant(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conns[conn.ID()] = conn
	c.send(conn, c.snapshotLocked(false))
}

// SubmitOperation runs the central state transition for one submitted
// operation, as a single atomic step per document:
//
//  1. sideData submissions short-circuit to the event hook.
//  2. The permission predicate runs; a deny is a silent drop.
//  3. The engine rebases and commits the operation. Engine failures
//     schedule a forced resync of the submitter; a subsumed operation
//     commits nothing.
//  4. The submitter is acked with the committed revision, per the
//     adaptive ack policy.
//  5. The committed operation is broadcast to every other participant.
//  6. The transcript entry is appended and the completion hook runs.
func (c *Coordinator) SubmitOperation(ctx context.Context, conn Conn, msg commons.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(msg.SideData) > 0 {
		c.runEventHook(conn.ID(), msg.SideData)
		return
	}

	if !c.permitted(ctx, conn.ID()) {
		return
	}

	commit, err := c.engine.Receive(msg.BaseRevision, msg.Ops, msg.Selection)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"conn": conn.ID(),
			"base": msg.BaseRevision,
		}).Errorf("operation rejected: %v", err)
		c.scheduleResync(conn)
		return
	}
	if commit == nil {
		// The rebased operation had no effect left; nothing was
		// committed, so there is nothing to ack or broadcast.
		c.logger.WithField("conn", conn.ID()).Debug("operation subsumed")
		return
	}

	p := c.reg.GetOrCreate(conn.ID())
	p.Selection = copySelection(commit.Selection)

	c.logger.WithFields(logrus.Fields{
		"conn":     conn.ID(),
		"base":     msg.BaseRevision,
		"revision": commit.Revision,
	}).Debug("operation committed")

	revision := commit.Revision
	c.acks.schedule(c.reg.Len(), func() {
		c.send(conn, commons.Message{Type: commons.AckMessage, Revision: revision})
	})

	c.broadcast(conn.ID(), commons.Message{
		Type:      commons.OperationMessage,
		ID:        conn.ID(),
		Revision:  commit.Revision,
		Ops:       commit.Ops,
		Selection: copySelection(commit.Selection),
	})

	c.record(ctx, transcript.Entry{
		ConnID:             conn.ID(),
		BaseRevision:       msg.BaseRevision,
		SubmittedOps:       append([]string(nil), msg.Ops...),
		SubmittedSelection: copySelection(msg.Selection),
		CommittedOps:       append([]string(nil), commit.Ops...),
		Revision:           commit.Revision,
		At:                 time.Now(),
	})

	c.runCompleteHook(conn.ID())
}

// FetchOperations sends conn the committed operations in [from, to),
// clamped to the available history. Pure read: no revision, registry or
// log change.
func (c *Coordinator) FetchOperations(conn Conn, from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, revision := c.engine.Snapshot()
	if to > revision {
		to = revision
	}
	if from < 0 {
		from = 0
	}

	c.send(conn, commons.Message{
		Type:    commons.OpsResultMessage,
		To:      to,
		History: c.engine.History(from, to),
	})
}

// UpdateSelection sets (or, with a nil selection, clears) the
// participant's cursor and tells its peers. Gated on the same permission
// predicate as operations; the document revision is untouched.
func (c *Coordinator) UpdateSelection(ctx context.Context, conn Conn, sel *commons.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.permitted(ctx, conn.ID()) {
		return
	}

	p := c.reg.GetOrCreate(conn.ID())
	p.Selection = copySelection(sel)

	c.broadcast(conn.ID(), commons.Message{
		Type:      commons.SelectionMessage,
		ID:        conn.ID(),
		Selection: copySelection(sel),
	})
}

// SetPresenceField sets the participant's display name or color and tells
// its peers. Unknown fields are ignored.
func (c *Coordinator) SetPresenceField(conn Conn, field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.reg.GetOrCreate(conn.ID())
	switch field {
	case commons.PresenceName:
		p.Name = value
	case commons.PresenceColor:
		p.Color = value
	default:
		c.logger.WithField("field", field).Debug("ignoring unknown presence field")
		return
	}

	c.broadcast(conn.ID(), commons.Message{
		Type:  commons.PresenceMessage,
		ID:    conn.ID(),
		Field: field,
		Value: value,
	})
}

// RemoveParticipant drops the connection from the broadcast group, deletes
// its presence record and broadcasts the departure. Safe to call more than
// once for the same connection; peers hear about the departure exactly
// once. An operation the connection already committed stays committed.
func (c *Coordinator) RemoveParticipant(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.conns[id]; !ok {
		return
	}
	delete(c.conns, id)
	c.reg.Remove(id)

	c.broadcast(id, commons.Message{Type: commons.LeftMessage, ID: id})
}

// permitted runs the permission predicate for a write. Predicate errors
// are logged and fail closed, keeping the silent-drop contract.
func (c *Coordinator) permitted(ctx context.Context, id uuid.UUID) bool {
	allowed, err := c.permission(ctx, id, ActionWrite)
	if err != nil {
		c.logger.WithField("conn", id).Errorf("permission predicate failed: %v", err)
		return false
	}
	if !allowed {
		c.logger.WithField("conn", id).Debug("write denied")
	}
	return allowed
}

// scheduleResync pushes the full authoritative snapshot to conn after a
// short pause, flagged so the client discards its divergent local state.
// The pause keeps the push from racing the in-flight failure; the snapshot
// is taken when the timer fires, so the client gets the true current
// revision.
func (c *Coordinator) scheduleResync(conn Conn) {
	time.AfterFunc(c.resyncDelay, func() {
		c.mu.Lock()
		msg := c.snapshotLocked(true)
		c.mu.Unlock()
		c.send(conn, msg)
	})
}

// snapshotLocked builds a snapshot message. Callers hold c.mu.
func (c *Coordinator) snapshotLocked(force bool) commons.Message {
	content, revision := c.engine.Snapshot()
	return commons.Message{
		Type:         commons.SnapshotMessage,
		Content:      content,
		Revision:     revision,
		Participants: c.reg.Participants(),
		Force:        force,
	}
}

// send delivers a message to a single connection, mirroring it to the
// publisher. Delivery failures are the transport's problem; they are
// logged and never unwind the coordinator.
func (c *Coordinator) send(conn Conn, msg commons.Message) {
	if err := conn.Send(msg); err != nil {
		c.logger.WithField("conn", conn.ID()).Errorf("failed to send %s: %v", msg.Type, err)
	}
	c.mirror(msg)
}

// broadcast delivers a message to every connection in the group except
// the one it originated from.
func (c *Coordinator) broadcast(except uuid.UUID, msg commons.Message) {
	for id, conn := range c.conns {
		if id == except {
			continue
		}
		if err := conn.Send(msg); err != nil {
			c.logger.WithField("conn", id).Errorf("failed to broadcast %s: %v", msg.Type, err)
		}
	}
	c.mirror(msg)
}

// mirror hands an outbound message to the publisher, if one is configured.
func (c *Coordinator) mirror(msg commons.Message) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(context.Background(), msg); err != nil {
		c.logger.Errorf("failed to publish %s: %v", msg.Type, err)
	}
}

// record appends a transcript entry, if a recorder is configured.
func (c *Coordinator) record(ctx context.Context, e transcript.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Append(ctx, e); err != nil {
		c.logger.Errorf("failed to record transcript entry: %v", err)
	}
}

// runEventHook routes an out-of-band payload to the event hook. The hook
// gets its own copy of the payload; errors and panics are logged and do
// not reach the document.
func (c *Coordinator) runEventHook(id uuid.UUID, data json.RawMessage) {
	if c.eventHook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("conn", id).Errorf("event hook panicked: %v", r)
		}
	}()
	if err := c.eventHook(id, append(json.RawMessage(nil), data...)); err != nil {
		c.logger.WithField("conn", id).Errorf("event hook failed: %v", err)
	}
}

// runCompleteHook runs the completion hook; once it returns (or panics)
// the operation counts as fully processed and the transport may accept
// the connection's next message.
func (c *Coordinator) runCompleteHook(id uuid.UUID) {
	if c.completeHook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("conn", id).Errorf("completion hook panicked: %v", r)
		}
	}()
	if err := c.completeHook(id); err != nil {
		c.logger.WithField("conn", id).Errorf("completion hook failed: %v", err)
	}
}

// copySelection clones a selection so stored and broadcast state never
// share memory with what hooks or clients hand in.
func copySelection(sel *commons.Selection) *commons.Selection {
	if sel == nil {
		return nil
	}
	cp := *sel
	return &cp
}
