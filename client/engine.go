package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nsf/termbox-go"

	"github.com/coedit/coedit/client/editor"
	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/ot"
)

// handleTermboxEvent handles key input by updating the local editor state
// and submitting the matching operation over the WebSocket connection.
func handleTermboxEvent(ev termbox.Event, conn *websocket.Conn) error {
	if ev.Type != termbox.EventKey {
		return nil
	}

	switch ev.Key {

	// The default keys for exiting a session are Esc and Ctrl+C.
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return errors.New("coedit: exiting")

	// Ctrl+G fetches the committed history up to the current revision
	// and reports how much of it the server still has.
	case termbox.KeyCtrlG:
		msg := commons.Message{Type: commons.FetchOpsMessage, From: 0, To: state.revision}
		if err := conn.WriteJSON(&msg); err != nil {
			logger.Errorf("failed to request history: %v", err)
		}

	// The default keys for moving left are the left arrow and Ctrl+B.
	case termbox.KeyArrowLeft, termbox.KeyCtrlB:
		e.MoveCursor(-1, 0)
		sendSelection(conn)

	// The default keys for moving right are the right arrow and Ctrl+F.
	case termbox.KeyArrowRight, termbox.KeyCtrlF:
		e.MoveCursor(1, 0)
		sendSelection(conn)

	// The default keys for moving up are the up arrow and Ctrl+P.
	case termbox.KeyArrowUp, termbox.KeyCtrlP:
		e.MoveCursor(0, -1)
		sendSelection(conn)

	// The default keys for moving down are the down arrow and Ctrl+N.
	case termbox.KeyArrowDown, termbox.KeyCtrlN:
		e.MoveCursor(0, 1)
		sendSelection(conn)

	// Home moves the cursor to the start of the text.
	case termbox.KeyHome:
		e.Cursor = 0
		sendSelection(conn)

	// End moves the cursor to the end of the text.
	case termbox.KeyEnd:
		e.Cursor = len(e.Text)
		sendSelection(conn)

	// The default keys for deleting a character are Backspace and
	// Delete.
	case termbox.KeyBackspace, termbox.KeyBackspace2, termbox.KeyDelete:
		performDelete(conn)

	// The Tab key inserts 4 spaces to simulate a "tab".
	case termbox.KeyTab:
		for i := 0; i < 4; i++ {
			performInsert(' ', conn)
		}

	// The Enter key inserts a newline.
	case termbox.KeyEnter:
		performInsert('\n', conn)

	// The Space key inserts a space.
	case termbox.KeySpace:
		performInsert(' ', conn)

	// Every other key is a candidate for insertion.
	default:
		if ev.Ch != 0 {
			performInsert(ev.Ch, conn)
		}
	}

	e.Draw()
	return nil
}

// performInsert applies a local insert and submits (or buffers) the
// matching operation.
func performInsert(r rune, conn *websocket.Conn) {
	pos := byteOffset(e.Text, e.Cursor)
	e.AddRune(r)

	logger.Debugf("LOCAL INSERT: %q at offset %d", r, pos)
	submit(&ot.Insert{Pos: pos, Value: string(r)}, conn)
}

// performDelete applies a local delete and submits (or buffers) the
// matching operation.
func performDelete(conn *websocket.Conn) {
	r, idx, ok := e.DeleteRune()
	if !ok {
		return
	}

	pos := byteOffset(e.Text, idx)
	logger.Debugf("LOCAL DELETE: %q at offset %d", r, pos)
	submit(&ot.Delete{Pos: pos, Len: len(string(r))}, conn)
}

// submit hands a local edit to the doc state and writes the resulting op
// message, if the state decided one should go out now.
func submit(op ot.Op, conn *websocket.Conn) {
	msg := state.localEdit(op)
	if msg == nil {
		// In flight already; the edit rides along once the ack lands.
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		e.StatusMsg = "lost connection!"
		e.SetStatusBar()
	}
}

// sendSelection tells the server where the local cursor is now.
func sendSelection(conn *websocket.Conn) {
	off := byteOffset(e.Text, e.Cursor)
	msg := commons.Message{
		Type:      commons.SetSelectionMessage,
		Selection: &commons.Selection{Anchor: off, Head: off},
	}
	if err := conn.WriteJSON(&msg); err != nil {
		logger.Errorf("failed to send selection: %v", err)
	}
}

// handleMsg updates the local document with the contents of a server
// message.
func handleMsg(msg commons.Message, conn *websocket.Conn) {
	switch msg.Type {

	case commons.SnapshotMessage:
		if msg.Force {
			logger.Errorf("FORCED RESYNC to revision %d, discarding local state", msg.Revision)
			e.StatusMsg = "out of sync, document reloaded"
			e.SetStatusBar()
		}
		state.reset(msg.Revision)
		e.SetText(msg.Content)
		e.Revision = msg.Revision
		for _, p := range msg.Participants {
			names[p.ID] = p.Name
			if p.Selection != nil {
				setPeerCursor(p.ID, p.Selection)
			}
		}

	case commons.AckMessage:
		logger.Debugf("ACK for revision %d", msg.Revision)
		e.Revision = msg.Revision
		if next := state.ack(msg.Revision); next != nil {
			if err := conn.WriteJSON(next); err != nil {
				e.StatusMsg = "lost connection!"
				e.SetStatusBar()
			}
		}

	case commons.OperationMessage:
		applyRemote(msg)

	case commons.OpsResultMessage:
		e.StatusMsg = fmt.Sprintf("server history: %d ops up to revision %d", len(msg.History), msg.To)
		e.SetStatusBar()

	case commons.SelectionMessage:
		setPeerCursor(msg.ID, msg.Selection)

	case commons.PresenceMessage:
		if msg.Field == commons.PresenceName {
			names[msg.ID] = msg.Value
		}

	case commons.LeftMessage:
		delete(names, msg.ID)
		e.RemovePeer(msg.ID.String())
		e.StatusMsg = fmt.Sprintf("%s left the session", peerName(msg.ID))
		e.SetStatusBar()

	default:
		logger.Debugf("ignoring message type %q", msg.Type)
	}

	e.Draw()
}

// applyRemote rebases a peer's committed operation over the local pending
// edits and applies it to the editor text, keeping the local cursor on
// the same logical character.
func applyRemote(msg commons.Message) {
	ops, err := state.remote(msg.Revision, msg.Ops)
	if err != nil {
		logger.Errorf("failed to decode remote operation: %v", err)
		return
	}

	text := string(e.Text)
	cursor := byteOffset(e.Text, e.Cursor)
	for _, op := range ops {
		if text, err = op.Apply(text); err != nil {
			logger.Errorf("failed to apply remote operation: %v", err)
			return
		}
	}
	sel := ot.TransformSelection(&commons.Selection{Anchor: cursor, Head: cursor}, ops)

	e.SetText(text)
	e.Cursor = runeIndex(text, sel.Head)
	e.Revision = msg.Revision
	if msg.Selection != nil {
		setPeerCursor(msg.ID, msg.Selection)
	}

	logger.Debugf("REMOTE OP from %v at revision %d: %v", msg.ID, msg.Revision, msg.Ops)
}

// setPeerCursor places a peer's cursor marker in the editor. A nil
// selection clears it.
func setPeerCursor(id uuid.UUID, sel *commons.Selection) {
	if sel == nil {
		e.RemovePeer(id.String())
		return
	}
	e.SetPeer(id.String(), editor.Peer{
		Cursor: runeIndex(string(e.Text), sel.Head),
		Name:   peerName(id),
	})
}

// peerName returns a peer's display name, falling back to a uuid prefix.
func peerName(id uuid.UUID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id.String()[:8]
}

// byteOffset converts a rune index in text to the byte offset operations
// are expressed in.
func byteOffset(text []rune, runeIdx int) int {
	if runeIdx > len(text) {
		runeIdx = len(text)
	}
	if runeIdx < 0 {
		runeIdx = 0
	}
	return len(string(text[:runeIdx]))
}

// runeIndex converts a byte offset back into a rune index, clamped to the
// text.
func runeIndex(text string, byteOff int) int {
	if byteOff < 0 {
		return 0
	}
	idx := 0
	for i := range text {
		if i >= byteOff {
			return idx
		}
		idx++
	}
	return idx
}

// getTermboxChan returns a channel of termbox Events repeatedly waiting
// on user input.
func getTermboxChan() chan termbox.Event {
	termboxChan := make(chan termbox.Event)

	go func() {
		for {
			termboxChan <- termbox.PollEvent()
		}
	}()

	return termboxChan
}

// getMsgChan returns a channel that repeatedly reads from a websocket
// connection.
func getMsgChan(conn *websocket.Conn) chan commons.Message {
	messageChan := make(chan commons.Message)
	go func() {
		for {
			var msg commons.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				close(messageChan)
				return
			}
			messageChan <- msg
		}
	}()
	return messageChan
}
