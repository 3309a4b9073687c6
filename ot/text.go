package ot

import (
	"errors"
	"fmt"

	"github.com/coedit/coedit/commons"
)

// Text is a string under operational transformation: the current value
// plus the ordered log of committed compound operations. The revision of
// the text is the length of that log; every commit appends exactly one
// entry, so revisions increase by one and never skip.
//
// Text is not safe for concurrent use; the session coordinator serializes
// all access to it.
type Text struct {
	value   string
	patches [][]Op
}

// Commit is the result of a successful Receive: the compound operation
// rebased against everything committed since its base revision, the
// revision it was committed at, and the submitter's selection rebased the
// same way.
type Commit struct {
	Revision  int
	Ops       []string
	Selection *commons.Selection
}

// NewText returns a Text at revision 0 holding s.
func NewText(s string) *Text {
	return &Text{value: s}
}

// Value returns the current text.
func (t *Text) Value() string {
	return t.value
}

// Revision returns the number of committed operations.
func (t *Text) Revision() int {
	return len(t.patches)
}

// Snapshot returns the current text and revision together.
func (t *Text) Snapshot() (string, int) {
	return t.value, len(t.patches)
}

// History returns the encoded committed operations in [from, to),
// clamped to the available log.
func (t *Text) History(from, to int) [][]string {
	if from < 0 {
		from = 0
	}
	if to > len(t.patches) {
		to = len(t.patches)
	}
	if from >= to {
		return nil
	}
	out := make([][]string, 0, to-from)
	for _, ops := range t.patches[from:to] {
		out = append(out, EncodeOps(ops))
	}
	return out
}

// Receive takes a compound operation composed against revision base,
// rebases it over every operation committed since, applies it and appends
// it to the log. It returns (nil, nil) when the rebased operation has no
// effect left (everything it touched was already removed concurrently);
// in that case nothing is committed. Any parse or apply failure leaves the
// text untouched.
func (t *Text) Receive(base int, payload []string, sel *commons.Selection) (*Commit, error) {
	ops, err := DecodeOps(payload)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, errors.New("empty operation")
	}
	if base < 0 || base > len(t.patches) {
		return nil, fmt.Errorf("base revision %d out of range (log length %d)", base, len(t.patches))
	}

	// Rebase the incoming compound op and its selection over every patch
	// committed since the base revision.
	for _, committed := range t.patches[base:] {
		ops, _ = TransformPatch(ops, committed)
		sel = TransformSelection(sel, committed)
	}

	if !hasEffect(ops) {
		return nil, nil
	}

	value := t.value
	for _, op := range ops {
		if value, err = op.Apply(value); err != nil {
			return nil, err
		}
	}

	t.patches = append(t.patches, ops)
	t.value = value

	return &Commit{
		Revision:  len(t.patches),
		Ops:       EncodeOps(ops),
		Selection: sel,
	}, nil
}

// hasEffect reports whether any op in the compound still changes text.
// Transforms can collapse inserts to empty strings and deletes to zero
// length.
func hasEffect(ops []Op) bool {
	for _, op := range ops {
		switch o := op.(type) {
		case *Insert:
			if len(o.Value) > 0 {
				return true
			}
		case *Delete:
			if o.Len > 0 {
				return true
			}
		}
	}
	return false
}
