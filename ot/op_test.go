package ot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coedit/coedit/commons"
)

func decodeOp(t *testing.T, s string) Op {
	t.Helper()
	op, err := DecodeOp(s)
	if err != nil {
		t.Fatalf("DecodeOp(%q) failed: %v", s, err)
	}
	return op
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		op      Op
		encoded string
	}{
		{op: &Insert{Pos: 0, Value: "foo"}, encoded: "i,0,foo"},
		{op: &Insert{Pos: 3, Value: "a,b"}, encoded: "i,3,a,b"},
		{op: &Delete{Pos: 2, Len: 4}, encoded: "d,2,4"},
	}

	for _, tc := range tests {
		if got := tc.op.Encode(); got != tc.encoded {
			t.Errorf("got encoding %q, expected %q", got, tc.encoded)
		}
		if got := decodeOp(t, tc.encoded).Encode(); got != tc.encoded {
			t.Errorf("round trip changed %q into %q", tc.encoded, got)
		}
	}
}

func TestDecodeOpErrors(t *testing.T) {
	tests := []string{
		"",
		"i,4",
		"i,x,foo",
		"d,0,x",
		"x,0,foo",
	}

	for _, tc := range tests {
		if _, err := DecodeOp(tc); err == nil {
			t.Errorf("DecodeOp(%q) succeeded, expected an error", tc)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		description string
		op          Op
		text        string
		expected    string
		wantErr     bool
	}{
		{description: "insert into empty text", op: &Insert{Pos: 0, Value: "foo"}, text: "", expected: "foo"},
		{description: "insert in the middle", op: &Insert{Pos: 2, Value: "xy"}, text: "abcd", expected: "abxycd"},
		{description: "insert at the end", op: &Insert{Pos: 3, Value: "!"}, text: "abc", expected: "abc!"},
		{description: "insert out of bounds", op: &Insert{Pos: 5, Value: "x"}, text: "abc", wantErr: true},
		{description: "delete from the middle", op: &Delete{Pos: 1, Len: 2}, text: "abcd", expected: "ad"},
		{description: "delete everything", op: &Delete{Pos: 0, Len: 3}, text: "abc", expected: ""},
		{description: "delete out of bounds", op: &Delete{Pos: 2, Len: 5}, text: "abc", wantErr: true},
	}

	for _, tc := range tests {
		got, err := tc.op.Apply(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("(%s) expected an error", tc.description)
			}
			continue
		}
		if err != nil {
			t.Errorf("(%s) error: %v", tc.description, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("(%s) got %q, expected %q", tc.description, got, tc.expected)
		}
	}
}

// TestTransform drives the OT diamond with encoded ops; each case checks
// a' and b', and the symmetric cases are checked in both orders.
func TestTransform(t *testing.T) {
	run := func(as, bs, aps, bps string, andReverse bool) {
		t.Helper()
		ap, bp := Transform(decodeOp(t, as), decodeOp(t, bs))
		if got := ap.Encode(); got != aps {
			t.Errorf("Transform(%q, %q): got a' %q, expected %q", as, bs, got, aps)
		}
		if got := bp.Encode(); got != bps {
			t.Errorf("Transform(%q, %q): got b' %q, expected %q", as, bs, got, bps)
		}

		if andReverse {
			bp, ap = Transform(decodeOp(t, bs), decodeOp(t, as))
			if got := ap.Encode(); got != aps {
				t.Errorf("Transform(%q, %q): got a' %q, expected %q", bs, as, got, aps)
			}
			if got := bp.Encode(); got != bps {
				t.Errorf("Transform(%q, %q): got b' %q, expected %q", bs, as, got, bps)
			}
		}
	}

	// Insert-insert; on ties b wins and a shifts forward.
	run("i,1,f", "i,1,foo", "i,4,f", "i,1,foo", false)
	run("i,1,foo", "i,1,f", "i,2,foo", "i,1,f", false)
	run("i,1,foo", "i,1,foo", "i,4,foo", "i,1,foo", false)
	run("i,1,foo", "i,2,foo", "i,1,foo", "i,5,foo", true)
	run("i,2,foo", "i,1,foo", "i,5,foo", "i,1,foo", true)

	// Insert-delete and delete-insert.
	run("i,2,foo", "d,0,1", "i,1,foo", "d,0,1", true)
	run("i,2,foo", "d,1,2", "i,1,", "d,1,5", true)
	run("i,2,foo", "d,2,2", "i,2,foo", "d,5,2", true)
	run("i,2,foo", "d,3,2", "i,2,foo", "d,6,2", true)
	run("i,2,f", "d,1,2", "i,1,", "d,1,3", true)
	run("i,2,f", "d,2,2", "i,2,f", "d,3,2", true)
	run("i,2,foo", "d,1,1", "i,1,foo", "d,1,1", true)
	run("i,2,foo", "d,2,1", "i,2,foo", "d,5,1", true)

	// Delete-delete, including overlaps.
	run("d,0,1", "d,0,1", "d,0,0", "d,0,0", true)
	run("d,0,1", "d,0,2", "d,0,0", "d,0,1", true)
	run("d,0,2", "d,3,4", "d,0,2", "d,1,4", true)
	run("d,1,2", "d,3,4", "d,1,2", "d,1,4", true)
	run("d,2,2", "d,3,4", "d,2,1", "d,2,3", true)
	run("d,3,2", "d,3,4", "d,3,0", "d,3,2", true)
	run("d,5,2", "d,3,4", "d,3,0", "d,3,2", true)
	run("d,6,2", "d,3,4", "d,3,1", "d,3,3", true)
	run("d,7,2", "d,3,4", "d,3,2", "d,3,4", true)
	run("d,8,2", "d,3,4", "d,4,2", "d,3,4", true)
}

// TestTransformConvergence checks the OT diamond property directly:
// applying a then b' must equal applying b then a'.
func TestTransformConvergence(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{a: "i,0,X", b: "i,0,Y"},
		{a: "i,2,ab", b: "d,1,3"},
		{a: "d,0,2", b: "d,1,2"},
		{a: "i,5,!", b: "d,0,5"},
	}

	const text = "hello"

	for _, tc := range tests {
		a, b := decodeOp(t, tc.a), decodeOp(t, tc.b)
		ap, bp := Transform(a, b)

		left, err := a.Apply(text)
		if err == nil {
			left, err = bp.Apply(left)
		}
		if err != nil {
			t.Errorf("(%s, %s) left side failed: %v", tc.a, tc.b, err)
			continue
		}

		right, err := b.Apply(text)
		if err == nil {
			right, err = ap.Apply(right)
		}
		if err != nil {
			t.Errorf("(%s, %s) right side failed: %v", tc.a, tc.b, err)
			continue
		}

		if left != right {
			t.Errorf("(%s, %s) diverged: %q != %q", tc.a, tc.b, left, right)
		}
	}
}

func TestTransformSelection(t *testing.T) {
	tests := []struct {
		description string
		sel         *commons.Selection
		ops         []string
		expected    *commons.Selection
	}{
		{description: "nil stays nil", sel: nil, ops: []string{"i,0,x"}, expected: nil},
		{description: "insert before shifts forward",
			sel: &commons.Selection{Anchor: 2, Head: 4}, ops: []string{"i,1,ab"},
			expected: &commons.Selection{Anchor: 4, Head: 6}},
		{description: "insert after leaves it alone",
			sel: &commons.Selection{Anchor: 2, Head: 2}, ops: []string{"i,5,ab"},
			expected: &commons.Selection{Anchor: 2, Head: 2}},
		{description: "delete before shifts backward",
			sel: &commons.Selection{Anchor: 4, Head: 4}, ops: []string{"d,0,2"},
			expected: &commons.Selection{Anchor: 2, Head: 2}},
		{description: "delete across collapses into the hole",
			sel: &commons.Selection{Anchor: 3, Head: 3}, ops: []string{"d,1,4"},
			expected: &commons.Selection{Anchor: 1, Head: 1}},
		{description: "compound op applies in order",
			sel: &commons.Selection{Anchor: 3, Head: 5}, ops: []string{"i,0,ab", "d,0,1"},
			expected: &commons.Selection{Anchor: 4, Head: 6}},
	}

	for _, tc := range tests {
		ops, err := DecodeOps(tc.ops)
		if err != nil {
			t.Fatalf("(%s) bad ops: %v", tc.description, err)
		}
		got := TransformSelection(tc.sel, ops)
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}
