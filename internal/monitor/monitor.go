// Package monitor exposes a debug event feed over websocket: one JSON line
// per completed turn across every running session, naming only action
// kinds and turn numbers. It never carries hand or deck contents, so it
// cannot be used to spectate a game or gain hidden information (spec.md's
// "no spectators" non-goal stays intact for gameplay itself — this is an
// operator's tool, not a player-facing one).
package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/hailam/paintclash/internal/session"
)

const (
	writeWait      = 1 * time.Second
	pingResolution = 5 * time.Second
	pongWait       = pingResolution * 3
	clientBuffer   = 32
)

var upgrader = websocket.Upgrader{
	// A local debug feed, not a player-facing surface; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans TurnEvents out to every connected monitor client. It implements
// session.EventSink, so a *Hub can be handed directly to
// session.NewServerSession without that package importing monitor.
type Hub struct {
	mu      sync.Mutex
	clients map[chan session.TurnEvent]struct{}
	log     logr.Logger
}

// NewHub builds an empty Hub.
func NewHub(log logr.Logger) *Hub {
	return &Hub{clients: make(map[chan session.TurnEvent]struct{}), log: log}
}

// Publish implements session.EventSink. A client too slow to keep up with
// its buffer has the event dropped for it rather than blocking the session
// that produced it — this feed is best-effort by design.
func (h *Hub) Publish(event session.TurnEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.log.Info("monitor: dropping event for slow client", "session", event.SessionID, "turn", event.Turn)
		}
	}
}

func (h *Hub) register() chan session.TurnEvent {
	ch := make(chan session.TurnEvent, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan session.TurnEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// turnEventJSON is the wire shape published to monitor clients: explicitly
// spelled out rather than json-tagging session.TurnEvent directly, so a
// future field added to TurnEvent for internal session bookkeeping doesn't
// silently leak onto the feed.
type turnEventJSON struct {
	SessionID       uint64 `json:"session_id"`
	Turn            int32  `json:"turn"`
	SouthActionKind string `json:"south_action_kind"`
	NorthActionKind string `json:"north_action_kind"`
	Terminal        bool   `json:"terminal"`
}

func toJSON(e session.TurnEvent) turnEventJSON {
	return turnEventJSON{
		SessionID:       e.SessionID,
		Turn:            e.Turn,
		SouthActionKind: e.SouthActionKind,
		NorthActionKind: e.NorthActionKind,
		Terminal:        e.Terminal,
	}
}

// ServeHTTP upgrades the request to a websocket and streams TurnEvents to
// it until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer ws.Close()

	events := h.register()
	defer h.unregister(events)

	pong := make(chan struct{}, 1)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})
	go drainReads(ws)

	ticker := time.NewTicker(pingResolution)
	defer ticker.Stop()

	lastPong := time.Now()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(toJSON(event)); err != nil {
				return
			}
		case <-ticker.C:
			if time.Since(lastPong) > pongWait {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

// drainReads keeps the connection's read side moving so the gorilla/websocket
// library's internal control-frame handling (pong, close) runs; this feed is
// write-only from the client's perspective.
func drainReads(ws *websocket.Conn) {
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
