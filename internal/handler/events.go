package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gameia/engine/internal/events"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxClientFrame = 512
	streamBuffer   = 64
)

// EventSource is satisfied by *events.Bus.
type EventSource interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

type EventsHandler struct {
	source   EventSource
	upgrader websocket.Upgrader
}

func NewEventsHandler(source EventSource) *EventsHandler {
	return &EventsHandler{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Callers authenticate with a bearer token, not cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades to a websocket and forwards engine events as JSON text
// frames. ?goal_id= narrows the stream to one goal. Client frames are read
// only to notice disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	goalID := r.URL.Query().Get("goal_id")
	userID := actor(r).UserID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}
	defer conn.Close()

	stream, unsubscribe := h.source.Subscribe(streamBuffer)
	defer unsubscribe()

	slog.Info("event stream connected", "user_id", userID, "goal_id", goalID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxClientFrame)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			slog.Info("event stream disconnected", "user_id", userID)
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			if goalID != "" && event.GoalID != goalID {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				slog.Info("event stream write failed", "error", err, "user_id", userID)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
