package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/kubbtrack/internal/session"
)

// Recorder is the slice of the lifecycle manager the bridge needs.
type Recorder interface {
	RecordThrow(ctx context.Context, id string, o session.Outcome) (bool, error)
	ActiveByID(id string) *session.Session
}

// client represents one connected wearable.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected wearables, applies their throw events
// through the manager, and broadcasts the refreshed session projection
// after every applied event.
type Hub struct {
	recorder   Recorder
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{} // closed when Run exits; unblocks pending sends
	mu         sync.Mutex
	upgrader   websocket.Upgrader
}

// NewHub initializes a hub around the given recorder.
func NewHub(recorder Recorder) *Hub {
	return &Hub{
		recorder:   recorder,
		clients:    map[*client]bool{},
		broadcast:  make(chan []byte),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader:   websocket.Upgrader{},
	}
}

// Run processes client registration and broadcasts until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		if cerr := c.conn.Close(); cerr != nil {
			// Best-effort close; unparks the reader.
			_ = cerr
		}
		delete(h.clients, c)
	}
}

// envelope wraps outbound messages so the device can dispatch on type.
type envelope struct {
	Type    string         `json:"type"`
	Context SessionContext `json:"context,omitzero"`
	Input   InputConfig    `json:"input,omitzero"`
}

// AnnounceSession pushes the projection and input configuration for a
// session to every connected wearable.
func (h *Hub) AnnounceSession(s *session.Session) {
	ctxMsg, err := json.Marshal(envelope{Type: "session_context", Context: BuildContext(s)})
	if err != nil {
		logErrf("failed to encode session context: %v\n", err)
		return
	}
	inputMsg, err := json.Marshal(envelope{Type: "input_config", Input: BuildInputConfig(s)})
	if err != nil {
		logErrf("failed to encode input config: %v\n", err)
		return
	}
	for _, msg := range [][]byte{ctxMsg, inputMsg} {
		select {
		case h.broadcast <- msg:
		case <-h.done:
			return
		}
	}
}

// ServeWS upgrades an HTTP request into a wearable connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logErrf("websocket upgrade failed: %v\n", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 8)}
	select {
	case h.register <- c:
	case <-h.done:
		if cerr := conn.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		if cerr := c.conn.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var event ThrowEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			logErrf("malformed throw event: %v\n", err)
			continue
		}
		// The request context ends when the HTTP handler returns; recorder
		// calls outlive it.
		h.handleEvent(context.Background(), event)
	}
}

func (h *Hub) handleEvent(ctx context.Context, event ThrowEvent) {
	applied, err := h.recorder.RecordThrow(ctx, event.SessionID, event.Outcome())
	if err != nil {
		logErrf("throw event rejected: %v\n", err)
		return
	}
	if !applied {
		// Mismatched session id: documented behavior, not an error.
		return
	}
	h.AnnounceSession(h.recorder.ActiveByID(event.SessionID))
}

func (h *Hub) writePump(c *client) {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
		// Best-effort close frame.
		_ = err
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
