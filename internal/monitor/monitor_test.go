package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/hailam/paintclash/internal/session"
)

func TestHubPublishesTurnEventsToConnectedClients(t *testing.T) {
	hub := NewHub(logr.Discard())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the server goroutine a moment to register before publishing.
	time.Sleep(20 * time.Millisecond)

	hub.Publish(session.TurnEvent{SessionID: 7, Turn: 3, SouthActionKind: "Pass", NorthActionKind: "Put", Terminal: false})

	var got turnEventJSON
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.SessionID != 7 || got.Turn != 3 || got.SouthActionKind != "Pass" || got.NorthActionKind != "Put" || got.Terminal {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestHubDropsEventsForDisconnectedClients(t *testing.T) {
	hub := NewHub(logr.Discard())
	ch := hub.register()
	hub.unregister(ch)

	// Publish must not panic or block once the only client has unregistered.
	hub.Publish(session.TurnEvent{SessionID: 1, Turn: 1})

	if len(hub.clients) != 0 {
		t.Fatalf("expected no clients, got %d", len(hub.clients))
	}
}
