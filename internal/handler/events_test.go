package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gameia/engine/internal/ctxkeys"
	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/model"
	"github.com/gorilla/websocket"
)

func TestEventStream(t *testing.T) {
	bus := events.NewBus()
	stream := NewEventsHandler(bus)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxkeys.WithActor(r.Context(), model.Actor{UserID: "watcher", Role: model.RoleUser})
		stream.Stream(w, r.WithContext(ctx))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events?goal_id=g1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(events.Event{Type: events.TypeGoalProgress, GoalID: "other"})
	bus.Publish(events.Event{
		Type:   events.TypeGoalStatusChanged,
		GoalID: "g1",
		Data:   events.StatusChange{From: model.GoalStatusActive, To: model.GoalStatusCompleted},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got events.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.GoalID != "g1" || got.Type != events.TypeGoalStatusChanged {
		t.Errorf("got %+v, want status change for g1", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for bus.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
