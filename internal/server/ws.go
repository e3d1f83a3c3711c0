package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// WatchHandler broadcasts completed evaluation summaries via WebSocket so a
// UI can follow results as they are produced.
type WatchHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler() *WatchHandler {
	return &WatchHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish sends an evaluation event to all connected clients. The exclusive
// lock serializes writers: Publish runs on every evaluation request goroutine
// and the connection forbids concurrent writes. Clients whose write fails are
// dropped.
func (h *WatchHandler) Publish(event any) {
	msg, err := json.Marshal(map[string]any{
		"evaluation": event,
		"timestamp":  time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("failed to marshal watch event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("dropping watch client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
