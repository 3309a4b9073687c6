package commons

import "github.com/google/uuid"

// Selection describes a participant's cursor as a range of text offsets.
// Anchor is where the selection started, Head is where the cursor sits; a
// plain cursor has Anchor == Head.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// PresenceName and PresenceColor are the presence fields a client may set.
const (
	PresenceName  = "name"
	PresenceColor = "color"
)

// Participant is the presence record of one live connection: display name,
// display color and current selection. All fields except the ID are
// optional and filled in lazily as the client announces them.
type Participant struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name,omitempty"`
	Color     string     `json:"color,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
}
