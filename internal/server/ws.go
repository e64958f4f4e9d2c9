package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

// DefaultEventQueueSize is the number of encoded events an EventHub buffers
// for its writer.
const DefaultEventQueueSize = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventHub broadcasts corrector events to websocket clients. Broadcast only
// queues; Run does the writes, so a stalled client never holds up the
// caller.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	queue   chan []byte
	dropped atomic.Uint64
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan []byte, DefaultEventQueueSize),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues v as JSON for every client. It never blocks; when the
// queue is full the event is dropped.
func (h *EventHub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("event encode error: %v", err)
		return
	}

	select {
	case h.queue <- msg:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (h *EventHub) Dropped() uint64 {
	return h.dropped.Load()
}

// Run writes queued events until ctx is cancelled. Clients that cannot take
// a message within a second are dropped.
func (h *EventHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.queue:
			h.write(msg)
		}
	}
}

func (h *EventHub) write(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
