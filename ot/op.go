package ot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coedit/coedit/commons"
)

// Operations are encoded as "i,P,value" for inserts and "d,P,len" for
// deletes, where P is the text offset the operation applies at. A compound
// operation is a slice of such strings applied in order.

// Op is a single text operation.
type Op interface {
	// Encode returns the wire encoding of the operation.
	Encode() string

	// Apply applies the operation to s and returns the new text.
	Apply(s string) (string, error)
}

// Insert inserts Value at offset Pos.
type Insert struct {
	Pos   int
	Value string
}

func (op *Insert) Encode() string {
	return fmt.Sprintf("i,%d,%s", op.Pos, op.Value)
}

func (op *Insert) Apply(s string) (string, error) {
	if op.Pos < 0 || op.Pos > len(s) {
		return "", errors.New("insert out of bounds")
	}
	return s[:op.Pos] + op.Value + s[op.Pos:], nil
}

// Delete removes Len bytes starting at offset Pos.
type Delete struct {
	Pos int
	Len int
}

func (op *Delete) Encode() string {
	return fmt.Sprintf("d,%d,%d", op.Pos, op.Len)
}

func (op *Delete) Apply(s string) (string, error) {
	if op.Pos < 0 || op.Pos+op.Len > len(s) {
		return "", errors.New("delete out of bounds")
	}
	return s[:op.Pos] + s[op.Pos+op.Len:], nil
}

// DecodeOp parses a single encoded operation.
func DecodeOp(s string) (Op, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("malformed op: %q", s)
	}
	pos, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed op position: %q", s)
	}
	switch parts[0] {
	case "i":
		return &Insert{Pos: pos, Value: parts[2]}, nil
	case "d":
		length, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("malformed op length: %q", s)
		}
		return &Delete{Pos: pos, Len: length}, nil
	default:
		return nil, fmt.Errorf("unknown op type: %q", s)
	}
}

// DecodeOps parses an encoded compound operation.
func DecodeOps(strs []string) ([]Op, error) {
	ops := make([]Op, len(strs))
	for i, v := range strs {
		op, err := DecodeOp(v)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

// EncodeOps encodes a compound operation.
func EncodeOps(ops []Op) []string {
	strs := make([]string, len(ops))
	for i, v := range ops {
		strs[i] = v.Encode()
	}
	return strs
}

// transformInsertDelete derives the bottom two sides of the OT diamond when
// the top two sides are an insert and a delete.
func transformInsertDelete(a *Insert, b *Delete) (ap, bp Op) {
	switch {
	case a.Pos <= b.Pos:
		// Insert before the delete. The delete shifts forward.
		return a, &Delete{Pos: b.Pos + len(a.Value), Len: b.Len}
	case a.Pos >= b.Pos+b.Len:
		// Insert after the delete. The insert shifts backward.
		return &Insert{Pos: a.Pos - b.Len, Value: a.Value}, b
	default:
		// Insert inside the deleted range. The delete grows to cover
		// the inserted text and the insert collapses to nothing.
		return &Insert{Pos: b.Pos}, &Delete{Pos: b.Pos, Len: b.Len + len(a.Value)}
	}
}

// Transform derives the bottom two sides of the OT diamond: given two
// operations a and b composed against the same text, it returns a' (a
// rebased over b) and b' (b rebased over a). On insert-insert ties b wins
// and a' shifts forward.
func Transform(a, b Op) (ap, bp Op) {
	switch at := a.(type) {
	case *Insert:
		switch bt := b.(type) {
		case *Insert:
			if bt.Pos <= at.Pos {
				return &Insert{Pos: at.Pos + len(bt.Value), Value: at.Value}, b
			}
			return a, &Insert{Pos: bt.Pos + len(at.Value), Value: bt.Value}
		case *Delete:
			return transformInsertDelete(at, bt)
		}
	case *Delete:
		switch bt := b.(type) {
		case *Insert:
			ins, del := transformInsertDelete(bt, at)
			return del, ins
		case *Delete:
			aEnd, bEnd := at.Pos+at.Len, bt.Pos+bt.Len
			if aEnd <= bt.Pos {
				return a, &Delete{Pos: bt.Pos - at.Len, Len: bt.Len}
			}
			if bEnd <= at.Pos {
				return &Delete{Pos: at.Pos - bt.Len, Len: at.Len}, b
			}
			// Overlapping deletes. Each side keeps only the part
			// the other did not already remove.
			pos := minInt(at.Pos, bt.Pos)
			overlap := minInt(aEnd, bEnd) - maxInt(at.Pos, bt.Pos)
			return &Delete{Pos: pos, Len: at.Len - overlap}, &Delete{Pos: pos, Len: bt.Len - overlap}
		}
	}
	return nil, nil
}

// TransformPatch rebases two compound operations against each other.
func TransformPatch(a, b []Op) (ap, bp []Op) {
	aNew, bNew := make([]Op, len(a)), make([]Op, len(b))
	copy(aNew, a)
	for i, bOp := range b {
		for j, aOp := range aNew {
			aNew[j], bOp = Transform(aOp, bOp)
		}
		bNew[i] = bOp
	}
	return aNew, bNew
}

// transformOffset shifts a text offset through a single committed
// operation.
func transformOffset(pos int, op Op) int {
	switch o := op.(type) {
	case *Insert:
		if o.Pos <= pos {
			return pos + len(o.Value)
		}
	case *Delete:
		if o.Pos+o.Len <= pos {
			return pos - o.Len
		}
		if o.Pos < pos {
			// The offset sat inside the deleted range; it collapses
			// to the start of the deletion.
			return o.Pos
		}
	}
	return pos
}

// TransformSelection rebases a selection through a compound operation so
// the cursor still points at the same logical text after the operation
// committed. A nil selection stays nil.
func TransformSelection(sel *commons.Selection, ops []Op) *commons.Selection {
	if sel == nil {
		return nil
	}
	out := *sel
	for _, op := range ops {
		out.Anchor = transformOffset(out.Anchor, op)
		out.Head = transformOffset(out.Head, op)
	}
	return &out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
