package main

import (
	"errors"

	"github.com/gorilla/websocket"
	"github.com/nsf/termbox-go"

	"github.com/coedit/coedit/client/editor"
)

// UI creates a new editor view and runs the main loop.
func UI(conn *websocket.Conn) error {
	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()

	e = editor.NewEditor()
	e.SetSize(termbox.Size())
	e.Draw()

	return mainLoop(conn)
}

// mainLoop is the main update loop for the UI.
func mainLoop(conn *websocket.Conn) error {
	termboxChan := getTermboxChan()
	msgChan := getMsgChan(conn)

	for {
		select {
		case termboxEvent := <-termboxChan:
			if err := handleTermboxEvent(termboxEvent, conn); err != nil {
				return err
			}
		case msg, ok := <-msgChan:
			if !ok {
				return errors.New("server closed the connection")
			}
			handleMsg(msg, conn)
		}
	}
}
