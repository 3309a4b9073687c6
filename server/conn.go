package main

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coedit/coedit/commons"
)

// wsConn adapts a websocket connection to session.Conn. Gorilla allows
// only one concurrent writer per connection, and the coordinator's
// delayed acks and resync pushes arrive from timer goroutines, so every
// write goes through a mutex.
type wsConn struct {
	id uuid.UUID
	mu sync.Mutex
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.New(), ws: ws}
}

func (c *wsConn) ID() uuid.UUID {
	return c.id
}

func (c *wsConn) Send(msg commons.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}
