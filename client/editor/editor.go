// Package editor implements the terminal text area the client edits in:
// local text, cursor movement, and rendering of peer cursors on top of
// the shared document.
package editor

import (
	"fmt"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

// Peer is another participant's rendered presence: where their cursor
// sits and what to call them.
type Peer struct {
	Cursor int
	Name   string
}

// Editor holds the local view of the document and the cursor state.
type Editor struct {
	Text      []rune
	Cursor    int
	Width     int
	Height    int
	ShowMsg   bool
	StatusMsg string

	// Revision is the last server revision the client has seen, shown
	// in the position bar.
	Revision int

	peers map[string]Peer
}

func NewEditor() *Editor {
	return &Editor{peers: make(map[string]Peer)}
}

func (e *Editor) GetText() []rune {
	return e.Text
}

func (e *Editor) SetText(text string) {
	e.Text = []rune(text)
	if e.Cursor > len(e.Text) {
		e.Cursor = len(e.Text)
	}
}

func (e *Editor) SetSize(w, h int) {
	e.Width = w
	e.Height = h
}

// SetPeer places (or moves) a peer cursor marker.
func (e *Editor) SetPeer(id string, p Peer) {
	e.peers[id] = p
}

// RemovePeer drops a peer cursor marker.
func (e *Editor) RemovePeer(id string) {
	delete(e.peers, id)
}

// AddRune inserts r at the cursor and advances it.
func (e *Editor) AddRune(r rune) {
	switch {
	case e.Cursor == 0:
		e.Text = append([]rune{r}, e.Text...)
	case e.Cursor < len(e.Text):
		e.Text = append(e.Text[:e.Cursor], e.Text[e.Cursor-1:]...)
		e.Text[e.Cursor] = r
	default:
		e.Text = append(e.Text, r)
	}
	e.Cursor++
}

// DeleteRune removes the rune before the cursor and returns it along with
// its former index. The second return is false at the start of the text.
func (e *Editor) DeleteRune() (rune, int, bool) {
	if e.Cursor == 0 || len(e.Text) == 0 {
		return 0, 0, false
	}
	idx := e.Cursor - 1
	r := e.Text[idx]
	e.Text = append(e.Text[:idx], e.Text[e.Cursor:]...)
	e.Cursor = idx
	return r, idx, true
}

// Draw repaints the text area, the peer cursors and the status line.
func (e *Editor) Draw() {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	cx, cy := e.calcCursorXY(e.Cursor)
	termbox.SetCursor(cx-1, cy-1)

	peerCells := make(map[int]bool, len(e.peers))
	for _, p := range e.peers {
		peerCells[p.Cursor] = true
	}

	x, y := 0, 0
	for i := 0; i < len(e.Text); i++ {
		if e.Text[i] == '\n' {
			x = 0
			y++
			continue
		}
		if x < e.Width {
			fg, bg := termbox.ColorDefault, termbox.ColorDefault
			if peerCells[i] {
				// Highlight the cell a peer's cursor sits on.
				fg, bg = termbox.ColorBlack, termbox.ColorCyan
			}
			termbox.SetCell(x, y, e.Text[i], fg, bg)
		}
		x += runewidth.RuneWidth(e.Text[i])
	}

	if e.ShowMsg {
		e.SetStatusBar()
	} else {
		e.showPositions()
	}

	termbox.Flush()
}

// SetStatusBar prints the status message on the bottom line and arranges
// for it to disappear after a few seconds.
func (e *Editor) SetStatusBar() {
	e.ShowMsg = true

	for i, r := range []rune(e.StatusMsg) {
		termbox.SetCell(i, e.Height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}

	_ = time.AfterFunc(5*time.Second, func() {
		e.ShowMsg = false
	})
}

// showPositions prints the cursor position and revision on the bottom
// line.
func (e *Editor) showPositions() {
	x, y := e.calcCursorXY(e.Cursor)
	str := fmt.Sprintf("ln %d, col %d, rev %d, peers %d", y, x, e.Revision, len(e.peers))

	for i, r := range []rune(str) {
		termbox.SetCell(i, e.Height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

// MoveCursor moves the cursor x runes horizontally and y lines
// vertically, clamped to the text.
func (e *Editor) MoveCursor(x, y int) {
	if len(e.Text) == 0 {
		return
	}
	newCursor := e.Cursor + x

	if y > 0 {
		newCursor = e.calcCursorDown()
	}
	if y < 0 {
		newCursor = e.calcCursorUp()
	}

	if newCursor > len(e.Text) {
		newCursor = len(e.Text)
	}
	if newCursor < 0 {
		newCursor = 0
	}
	e.Cursor = newCursor
}

// calcCursorUp and calcCursorDown work by finding the newline characters
// bounding the current line, measuring the cursor's offset from the line
// start, and re-applying that offset on the target line (clamped to the
// target line's length).

// calcCursorUp returns the cursor position one line up.
func (e *Editor) calcCursorUp() int {
	pos := e.Cursor
	offset := 0

	// A cursor past the end of the text or sitting on a newline is
	// nudged off it first.
	if pos == len(e.Text) || e.Text[pos] == '\n' {
		offset++
		pos--
	}
	if pos < 0 {
		pos = 0
	}

	start, end := pos, pos

	for start > 0 && e.Text[start] != '\n' {
		start--
	}

	// Already on the first line: jump to the beginning of the text.
	if start == 0 {
		return 0
	}

	for end < len(e.Text) && e.Text[end] != '\n' {
		end++
	}

	prevStart := start - 1
	for prevStart >= 0 && e.Text[prevStart] != '\n' {
		prevStart--
	}

	offset += pos - start
	if offset <= start-prevStart {
		return prevStart + offset
	}
	return start
}

// calcCursorDown returns the cursor position one line down.
func (e *Editor) calcCursorDown() int {
	pos := e.Cursor
	offset := 0

	if pos == len(e.Text) || e.Text[pos] == '\n' {
		offset++
		pos--
	}
	if pos < 0 {
		pos = 0
	}

	start, end := pos, pos

	for start > 0 && e.Text[start] != '\n' {
		start--
	}

	// The first line has no leading newline, unlike every other line.
	if start == 0 && e.Text[start] != '\n' {
		offset++
	}

	for end < len(e.Text) && e.Text[end] != '\n' {
		end++
	}

	// A cursor on a newline needs end pushed past it, otherwise
	// start == end.
	if e.Text[pos] == '\n' && e.Cursor != 0 {
		end++
	}

	// Already on the last line: jump to the end of the text.
	if end == len(e.Text) {
		return len(e.Text)
	}

	nextEnd := end + 1
	for nextEnd < len(e.Text) && e.Text[nextEnd] != '\n' {
		nextEnd++
	}

	offset += pos - start
	if offset < nextEnd-end {
		return end + offset
	}
	return nextEnd
}

// calcCursorXY converts a text index into 1-based column and line
// positions.
func (e *Editor) calcCursorXY(index int) (int, int) {
	x, y := 1, 1

	if index < 0 {
		return x, y
	}
	if index > len(e.Text) {
		index = len(e.Text)
	}

	for i := 0; i < index; i++ {
		if e.Text[i] == '\n' {
			x = 1
			y++
		} else {
			x += runewidth.RuneWidth(e.Text[i])
		}
	}
	return x, y
}
