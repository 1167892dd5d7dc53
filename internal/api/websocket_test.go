package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/ups-monitor/internal/broadcast"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/config"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

var _ broadcast.Publisher = (*Hub)(nil)

func testHub() *Hub {
	return NewHub(config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 10}, testLogger())
}

func TestHub_PublishEnvelope(t *testing.T) {
	hub := testHub()
	hub.now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }

	client := &WSClient{hub: hub, send: make(chan []byte, wsSendBufferSize)}
	hub.Register(client)

	snap := snapshot.New([]snapshot.DeviceSnapshot{
		{DeviceID: "ups1", RoomLabel: "Lab", Variables: map[string]string{"ups.status": "OL"}},
	}, time.Now())
	hub.Publish(broadcast.EventUPSUpdate, snap)

	select {
	case data := <-client.send:
		var msg struct {
			Event     string                    `json:"event"`
			Timestamp string                    `json:"timestamp"`
			Payload   map[string]map[string]any `json:"payload"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Event != broadcast.EventUPSUpdate {
			t.Errorf("event = %q", msg.Event)
		}
		if msg.Timestamp != "2026-04-01T12:00:00Z" {
			t.Errorf("timestamp = %q", msg.Timestamp)
		}
		if msg.Payload["ups1"]["rooms"] != "Lab" {
			t.Errorf("payload = %v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := testHub()

	slow := &WSClient{hub: hub, send: make(chan []byte, 1)}
	fast := &WSClient{hub: hub, send: make(chan []byte, 8)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Publish("e", 1)
	hub.Publish("e", 2)
	hub.Publish("e", 3)

	if got := len(fast.send); got != 3 {
		t.Errorf("fast client queued %d, want 3", got)
	}
	if got := len(slow.send); got != 1 {
		t.Errorf("slow client queued %d, want 1", got)
	}
	if got := hub.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestHub_PublishAfterUnregister(t *testing.T) {
	hub := testHub()
	client := &WSClient{hub: hub, send: make(chan []byte, 1)}
	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)

	if client.trySend([]byte("x")) {
		t.Error("trySend on an unregistered client should report false")
	}
	hub.Publish("e", nil)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHub_RunClosesClients(t *testing.T) {
	hub := testHub()
	client := &WSClient{hub: hub, send: make(chan []byte, 1)}
	hub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestWebSocket_ReceivesEvents(t *testing.T) {
	srv, _, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	srv.Hub().Publish(broadcast.EventChartUpdate, map[string]any{
		"ups1": map[string]any{"timestamp": 1, "input_voltage": 230.0, "battery_charge": 100.0},
	})

	//nolint:errcheck // test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Event != broadcast.EventChartUpdate {
		t.Errorf("event = %q, want chart_update", msg.Event)
	}

	// Client chatter is ignored.
	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws.Close()
	deadline = time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
