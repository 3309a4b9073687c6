package commons

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Message represents the message sent over the wire, in both directions.
// A single flat struct is used for every message type; the Type field
// decides which of the remaining fields are meaningful.
type Message struct {
	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the connection UUID of the sender of a broadcast,
	// or the subject of a departure/presence notice.
	ID uuid.UUID `json:"id,omitempty"`

	// Revision carries the committed revision for acks and operation
	// broadcasts, and the document revision for snapshots.
	Revision int `json:"revision,omitempty"`

	// BaseRevision is the revision a submitted operation was composed
	// against.
	BaseRevision int `json:"baseRevision,omitempty"`

	// Ops holds one encoded compound operation (see the ot package for
	// the encoding).
	Ops []string `json:"ops,omitempty"`

	// History holds a slice of the committed operation log, one encoded
	// compound operation per revision, for fetch responses.
	History [][]string `json:"history,omitempty"`

	// From and To bound a history fetch, half-open: [From, To).
	From int `json:"from,omitempty"`
	To   int `json:"to,omitempty"`

	// Selection is the submitted or rebased cursor state. A nil
	// selection on a setSelection/selection message clears the cursor.
	Selection *Selection `json:"selection,omitempty"`

	// Field and Value carry a presence update ("name" or "color").
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`

	// Content is the full document text, sent only on snapshots.
	Content string `json:"content,omitempty"`

	// Participants lists the known presence records, sent only on
	// snapshots.
	Participants []Participant `json:"participants,omitempty"`

	// Force tells the client to discard local state and adopt the
	// snapshot unconditionally.
	Force bool `json:"force,omitempty"`

	// SideData is an opaque out-of-band payload. When present on an op
	// message, the server routes it to the event hook instead of the
	// engine.
	SideData json.RawMessage `json:"sideData,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

const (
	// SnapshotMessage carries the full document state to one client, on
	// join or on a forced resync.
	SnapshotMessage MessageType = "snapshot"

	// OpMessage is a client's operation submission.
	OpMessage MessageType = "op"

	// AckMessage confirms a client's submission with its new revision.
	AckMessage MessageType = "ack"

	// OperationMessage broadcasts a committed operation to every
	// participant except the submitter.
	OperationMessage MessageType = "operation"

	// FetchOpsMessage requests a slice of the committed operation log.
	FetchOpsMessage MessageType = "fetchOps"

	// OpsResultMessage answers a fetchOps request.
	OpsResultMessage MessageType = "opsResult"

	// SetSelectionMessage is a client's cursor update.
	SetSelectionMessage MessageType = "setSelection"

	// SelectionMessage broadcasts a participant's cursor to its peers.
	SelectionMessage MessageType = "selection"

	// PresenceMessage broadcasts a participant's name or color.
	PresenceMessage MessageType = "presence"

	// LeftMessage broadcasts a participant's departure.
	LeftMessage MessageType = "left"
)
