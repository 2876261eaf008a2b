package trailhunt

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/trailhunt-games/trailhunt/internal/logging"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/match"
)

const writeWait = 5 * time.Second

// Event is one message pushed to connected operator browsers: either the
// full re-rendered view or a sound cue name for the browser to synthesize.
type Event struct {
	Type string      `json:"type"`
	View *match.View `json:"view,omitempty"`
	Cue  string      `json:"cue,omitempty"`
}

func newHub() *hub {
	return &hub{
		clients: map[*websocket.Conn]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// single local operator, same-origin only surface
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type hub struct {
	mtx      sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// handle upgrades the connection, sends the initial view and keeps the
// connection registered until the peer goes away.
func (h *hub) handle(ctx context.Context, w http.ResponseWriter, r *http.Request, initial Event) {
	logger := logging.FromContext(ctx).Named("trailhunt.hub")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("ws upgrade: %v", err)
		return
	}

	h.mtx.Lock()
	h.clients[conn] = struct{}{}
	err = h.write(conn, initial)
	h.mtx.Unlock()

	if err != nil {
		h.drop(conn)
		return
	}

	go func() {
		defer h.drop(conn)
		for {
			// the browser never sends payloads; reading only detects close
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast sends an event to every connected browser, dropping the ones
// that fail. The hub lock serializes writers per connection.
func (h *hub) broadcast(event Event) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for conn := range h.clients {
		if err := h.write(conn, event); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

// write requires the hub lock held.
func (h *hub) write(conn *websocket.Conn, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mtx.Lock()
	delete(h.clients, conn)
	h.mtx.Unlock()
	_ = conn.Close()
}

func (h *hub) close() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = map[*websocket.Conn]struct{}{}
}
