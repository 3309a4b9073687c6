package main

import (
	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/ot"
)

// docState is the client half of the OT protocol: the last revision the
// server confirmed, the compound operation currently in flight, and the
// buffer of edits composed while waiting for its ack.
//
// The client keeps at most one submission in flight. Everything typed
// while waiting lands in the buffer and goes out as one compound
// operation when the ack arrives. This is exactly the batching the
// server's adaptive ack delay leans on: the longer the ack takes, the
// more local edits fold into the next submission.
type docState struct {
	revision int
	inflight []ot.Op
	buffer   []ot.Op
}

func newDocState() *docState {
	return &docState{}
}

// localEdit records an edit made in the editor. It returns the op message
// to send now, or nil when a submission is already in flight and the edit
// was buffered.
func (s *docState) localEdit(op ot.Op) *commons.Message {
	if s.inflight != nil {
		s.buffer = append(s.buffer, op)
		return nil
	}
	s.inflight = []ot.Op{op}
	return s.submitMessage()
}

// ack handles the server's acknowledgment of the in-flight submission.
// It returns the next op message to send when buffered edits are waiting,
// or nil when the client is idle again.
func (s *docState) ack(revision int) *commons.Message {
	s.revision = revision
	s.inflight = nil
	if len(s.buffer) == 0 {
		return nil
	}
	s.inflight = s.buffer
	s.buffer = nil
	return s.submitMessage()
}

// remote handles a committed operation broadcast from another
// participant: it rebases the in-flight submission and the buffer over
// it, adopts the new revision, and returns the ops to apply to the local
// text (already rebased over the local pending edits).
func (s *docState) remote(revision int, payload []string) ([]ot.Op, error) {
	ops, err := ot.DecodeOps(payload)
	if err != nil {
		return nil, err
	}
	if s.inflight != nil {
		s.inflight, ops = ot.TransformPatch(s.inflight, ops)
	}
	if len(s.buffer) > 0 {
		s.buffer, ops = ot.TransformPatch(s.buffer, ops)
	}
	s.revision = revision
	return ops, nil
}

// reset discards all pending local state, e.g. on a (forced) snapshot.
func (s *docState) reset(revision int) {
	s.revision = revision
	s.inflight = nil
	s.buffer = nil
}

// pending reports whether a submission is awaiting its ack.
func (s *docState) pending() bool {
	return s.inflight != nil
}

// submitMessage builds the op message for the current in-flight compound
// operation, based on the last confirmed revision.
func (s *docState) submitMessage() *commons.Message {
	return &commons.Message{
		Type:         commons.OpMessage,
		BaseRevision: s.revision,
		Ops:          ot.EncodeOps(s.inflight),
	}
}
