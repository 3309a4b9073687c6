package ot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coedit/coedit/commons"
)

func TestTextSnapshot(t *testing.T) {
	text := NewText("hello")

	content, revision := text.Snapshot()
	if content != "hello" || revision != 0 {
		t.Errorf("got (%q, %d), expected (%q, 0)", content, revision, "hello")
	}
}

// TestReceive commits an insert against the current revision.
func TestReceive(t *testing.T) {
	text := NewText("hello")

	commit, err := text.Receive(0, []string{"i,0,X"}, nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if commit.Revision != 1 {
		t.Errorf("got revision %d, expected 1", commit.Revision)
	}
	if text.Value() != "Xhello" {
		t.Errorf("got text %q, expected %q", text.Value(), "Xhello")
	}
	if !cmp.Equal(commit.Ops, []string{"i,0,X"}) {
		t.Errorf("got ops %v, expected the submitted op unchanged", commit.Ops)
	}
}

// TestReceiveRebases submits against a stale base revision and expects
// the delete to be rebased over the operation committed in between.
func TestReceiveRebases(t *testing.T) {
	text := NewText("hello")

	if _, err := text.Receive(0, []string{"i,0,X"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}

	// A delete of the (old) leading character, composed against
	// revision 0, must shift past the concurrent insert.
	commit, err := text.Receive(0, []string{"d,0,1"}, nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if commit.Revision != 2 {
		t.Errorf("got revision %d, expected 2", commit.Revision)
	}
	if !cmp.Equal(commit.Ops, []string{"d,1,1"}) {
		t.Errorf("got ops %v, expected the rebased delete d,1,1", commit.Ops)
	}
	if text.Value() != "Xello" {
		t.Errorf("got text %q, expected %q", text.Value(), "Xello")
	}
}

func TestReceiveRebasesSelection(t *testing.T) {
	text := NewText("hello")

	if _, err := text.Receive(0, []string{"i,0,XY"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}

	commit, err := text.Receive(0, []string{"i,5,!"}, &commons.Selection{Anchor: 5, Head: 5})
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	expected := &commons.Selection{Anchor: 7, Head: 7}
	if !cmp.Equal(commit.Selection, expected) {
		t.Errorf("got selection %+v, expected %+v", commit.Selection, expected)
	}
}

// TestReceiveSubsumed submits a delete whose target was already deleted
// concurrently; nothing must be committed.
func TestReceiveSubsumed(t *testing.T) {
	text := NewText("hello")

	if _, err := text.Receive(0, []string{"d,0,1"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}

	commit, err := text.Receive(0, []string{"d,0,1"}, nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if commit != nil {
		t.Errorf("got commit %+v, expected nil (subsumed)", commit)
	}
	if text.Revision() != 1 {
		t.Errorf("got revision %d, expected 1 (no commit)", text.Revision())
	}
	if text.Value() != "ello" {
		t.Errorf("got text %q, expected %q", text.Value(), "ello")
	}
}

func TestReceiveFailures(t *testing.T) {
	tests := []struct {
		description string
		base        int
		payload     []string
	}{
		{description: "malformed payload", base: 0, payload: []string{"garbage"}},
		{description: "empty payload", base: 0, payload: nil},
		{description: "base beyond the log", base: 7, payload: []string{"i,0,x"}},
		{description: "negative base", base: -1, payload: []string{"i,0,x"}},
		{description: "op out of bounds", base: 0, payload: []string{"i,99,x"}},
	}

	for _, tc := range tests {
		text := NewText("hello")
		if _, err := text.Receive(tc.base, tc.payload, nil); err == nil {
			t.Errorf("(%s) expected an error", tc.description)
			continue
		}

		// A failure never mutates the text or the log.
		if text.Value() != "hello" || text.Revision() != 0 {
			t.Errorf("(%s) failure mutated state: %q at revision %d", tc.description, text.Value(), text.Revision())
		}
	}
}

func TestHistory(t *testing.T) {
	text := NewText("")
	if _, err := text.Receive(0, []string{"i,0,a"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}
	if _, err := text.Receive(1, []string{"i,1,b"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}
	if _, err := text.Receive(2, []string{"i,2,c"}, nil); err != nil {
		t.Fatalf("error: %v", err)
	}

	tests := []struct {
		description string
		from, to    int
		expected    [][]string
	}{
		{description: "full log", from: 0, to: 3,
			expected: [][]string{{"i,0,a"}, {"i,1,b"}, {"i,2,c"}}},
		{description: "middle slice", from: 1, to: 2,
			expected: [][]string{{"i,1,b"}}},
		{description: "clamped high", from: 1, to: 99,
			expected: [][]string{{"i,1,b"}, {"i,2,c"}}},
		{description: "clamped low", from: -5, to: 1,
			expected: [][]string{{"i,0,a"}}},
		{description: "empty range", from: 2, to: 2, expected: nil},
		{description: "inverted range", from: 3, to: 1, expected: nil},
	}

	for _, tc := range tests {
		got := text.History(tc.from, tc.to)
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v", tc.description, cmp.Diff(got, tc.expected))
		}
	}

	// Reads never advance the revision.
	if text.Revision() != 3 {
		t.Errorf("got revision %d after reads, expected 3", text.Revision())
	}
}
