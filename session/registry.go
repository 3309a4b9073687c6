package session

import (
	"github.com/google/uuid"

	"github.com/coedit/coedit/commons"
)

// Registry maps connection identities to their presence records. It is
// owned by exactly one coordinator, which serializes all access; the
// registry itself does no locking. Records are created lazily on a
// participant's first interaction, not on connect.
type Registry struct {
	participants map[uuid.UUID]*commons.Participant
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[uuid.UUID]*commons.Participant)}
}

// GetOrCreate returns the record for id, creating an empty one if absent.
func (r *Registry) GetOrCreate(id uuid.UUID) *commons.Participant {
	p, ok := r.participants[id]
	if !ok {
		p = &commons.Participant{ID: id}
		r.participants[id] = p
	}
	return p
}

// Remove deletes the record for id, if any.
func (r *Registry) Remove(id uuid.UUID) {
	delete(r.participants, id)
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Participants returns a copy of all presence records, in no particular
// order.
func (r *Registry) Participants() []commons.Participant {
	out := make([]commons.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		cp := *p
		if p.Selection != nil {
			sel := *p.Selection
			cp.Selection = &sel
		}
		out = append(out, cp)
	}
	return out
}
