package main

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/session"
)

// handler upgrades incoming HTTP connections to WebSocket connections and
// feeds their messages into the document's coordinator.
type handler struct {
	coordinator *session.Coordinator
	upgrader    websocket.Upgrader
	logger      *logrus.Logger
}

func newHandler(coordinator *session.Coordinator, logger *logrus.Logger) *handler {
	return &handler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("failed to upgrade connection: %v", err)
		return
	}

	conn := newWSConn(ws)
	h.logger.WithField("conn", conn.ID()).Info("client connected")

	defer func() {
		h.coordinator.RemoveParticipant(conn.ID())
		ws.Close()
		h.logger.WithField("conn", conn.ID()).Info("client disconnected")
	}()

	h.coordinator.AddParticipant(conn)

	// One message at a time per connection: the next read only happens
	// after the coordinator (and its completion hook) finished with the
	// previous message, which is the transport's back-pressure.
	for {
		var msg commons.Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithField("conn", conn.ID()).Errorf("read failed: %v", err)
			}
			return
		}
		h.dispatch(r.Context(), conn, msg)
	}
}

// dispatch routes one client message to the coordinator operation it asks
// for.
func (h *handler) dispatch(ctx context.Context, conn *wsConn, msg commons.Message) {
	switch msg.Type {
	case commons.OpMessage:
		h.coordinator.SubmitOperation(ctx, conn, msg)
	case commons.FetchOpsMessage:
		h.coordinator.FetchOperations(conn, msg.From, msg.To)
	case commons.SetSelectionMessage:
		h.coordinator.UpdateSelection(ctx, conn, msg.Selection)
	case commons.PresenceMessage:
		h.coordinator.SetPresenceField(conn, msg.Field, msg.Value)
	default:
		h.logger.WithFields(logrus.Fields{
			"conn": conn.ID(),
			"type": msg.Type,
		}).Debug("ignoring unexpected message type")
	}
}
