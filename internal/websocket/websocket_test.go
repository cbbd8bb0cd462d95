package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// fakeSink records the draft traffic arriving over the socket
type fakeSink struct {
	mu        sync.Mutex
	events    []drafts.ChangeEvent
	cleared   []string
	submitErr error
}

func (f *fakeSink) Submit(ev drafts.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSink) Clear(ctx context.Context, kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, kind+"/"+id)
	return nil
}

func (f *fakeSink) snapshot() ([]drafts.ChangeEvent, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]drafts.ChangeEvent(nil), f.events...), append([]string(nil), f.cleared...)
}

func startHub(t *testing.T, sink DraftSink) *Hub {
	t.Helper()
	hub := New(logger.Nop(), sink)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)

	// Convert http://... to ws://...
	ws, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	// Give server time to register client
	time.Sleep(50 * time.Millisecond)
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) models.WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_MultipleInstances_NoGlobalState(t *testing.T) {
	hub1 := New(logger.Nop(), &fakeSink{})
	hub2 := New(logger.Nop(), &fakeSink{})
	if hub1 == hub2 || hub1.clients == nil || hub2.clients == nil {
		t.Fatal("expected independent hubs")
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := startHub(t, &fakeSink{})

	client := &Client{hub: hub, send: make(chan models.WSMessage, 256)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-client.send; ok {
		t.Error("expected send channel to be closed")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := New(logger.Nop(), &fakeSink{})
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	client := &Client{hub: hub, send: make(chan models.WSMessage, 1)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestServeWs_SystemMessageBroadcast(t *testing.T) {
	hub := startHub(t, &fakeSink{})
	ws := dial(t, hub)

	hub.BroadcastSystemMessage("success", "Akce uložena")

	msg := readMessage(t, ws)
	if msg.Type != TypeSystemMessage {
		t.Fatalf("expected system_message, got %q", msg.Type)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload %T", msg.Payload)
	}
	if payload["level"] != "success" || payload["message"] != "Akce uložena" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestServeWs_FormChangeReachesDrafts(t *testing.T) {
	sink := &fakeSink{}
	hub := startHub(t, sink)
	ws := dial(t, hub)

	err := ws.WriteMessage(websocket.TextMessage, []byte(
		`{"type":"form_change","payload":{"kind":"event","id":"new-1","step":"basic","values":{"name":"Tábor"}}}`))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, func() bool {
		events, _ := sink.snapshot()
		return len(events) == 1
	})
	events, _ := sink.snapshot()
	ev := events[0]
	if ev.Kind != "event" || ev.ID != "new-1" || ev.Step != "basic" || ev.Values["name"] != "Tábor" {
		t.Errorf("unexpected change event %+v", ev)
	}
}

func TestServeWs_FormDiscard(t *testing.T) {
	sink := &fakeSink{}
	hub := startHub(t, sink)
	ws := dial(t, hub)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"form_discard","payload":{"kind":"event","id":"12"}}`))

	waitFor(t, func() bool {
		_, cleared := sink.snapshot()
		return len(cleared) == 1 && cleared[0] == "event/12"
	})
}

func TestServeWs_SubmitErrorIsReported(t *testing.T) {
	hub := startHub(t, &fakeSink{submitErr: errors.New("draft writer closed")})
	ws := dial(t, hub)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"form_change","payload":{"kind":"event","id":"1","step":"basic"}}`))

	msg := readMessage(t, ws)
	if msg.Type != TypeError {
		t.Fatalf("expected error message, got %q", msg.Type)
	}
	if payload, _ := msg.Payload.(map[string]interface{}); payload["message"] != "draft writer closed" {
		t.Errorf("unexpected payload %v", msg.Payload)
	}
}

func TestServeWs_MalformedMessage(t *testing.T) {
	hub := startHub(t, &fakeSink{})
	ws := dial(t, hub)

	ws.WriteMessage(websocket.TextMessage, []byte(`not json`))

	if msg := readMessage(t, ws); msg.Type != TypeError {
		t.Errorf("expected error message, got %q", msg.Type)
	}
}

func TestCheckOrigin(t *testing.T) {
	hub := New(logger.Nop(), &fakeSink{})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")
	if !hub.checkOrigin(req) {
		t.Error("no configured origins should allow any origin")
	}

	hub.SetAllowedOrigins([]string{"https://admin.brontosaurus.cz"})
	if hub.checkOrigin(req) {
		t.Error("expected foreign origin to be rejected")
	}
	req.Header.Set("Origin", "https://admin.brontosaurus.cz")
	if !hub.checkOrigin(req) {
		t.Error("expected configured origin to be accepted")
	}
}

func TestServeWs_RejectsRegistrationDrafts(t *testing.T) {
	sink := &fakeSink{}
	hub := startHub(t, sink)
	ws := dial(t, hub)

	for _, raw := range []string{
		`{"type":"form_change","payload":{"kind":"registration","id":"80:abc","step":"form","values":{"first_name":"Petr"}}}`,
		`{"type":"form_change","payload":{"kind":"settings","id":"1","step":"x"}}`,
		`{"type":"form_discard","payload":{"kind":"registration","id":"80:abc"}}`,
	} {
		ws.WriteMessage(websocket.TextMessage, []byte(raw))
		msg := readMessage(t, ws)
		if msg.Type != TypeError {
			t.Fatalf("expected error for %s, got %q", raw, msg.Type)
		}
	}

	events, cleared := sink.snapshot()
	if len(events) != 0 || len(cleared) != 0 {
		t.Errorf("expected nothing to reach the drafts, got %v %v", events, cleared)
	}
}

func TestClient_ReplyAfterHubStopped(t *testing.T) {
	hub := New(logger.Nop(), &fakeSink{})
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	client := &Client{hub: hub, send: make(chan models.WSMessage, 1)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	client.reply(TypeError, "late")
	client.handle([]byte(`not json`))

	if _, ok := <-client.send; ok {
		t.Error("expected no message after the hub dropped the client")
	}
}
