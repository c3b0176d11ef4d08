package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/playpool/plinko/internal/game"
)

// Hub maintains the connected clients, grouped into one room per session.
type Hub struct {
	rooms      map[string]map[*Client]struct{} // sessionID -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for sessionID, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, sessionID)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

// join registers c; it fails once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.sessionID] = room
	}
	room[c] = struct{}{}
	log.Printf("[WS] Player %d connected to session %s (room_size=%d)", c.playerID, c.sessionID, len(room))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.sessionID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
	log.Printf("[WS] Player %d left session %s", c.playerID, c.sessionID)
}

// RoomSize returns the number of clients watching a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastRaw sends an encoded message to every client of a session. Slow
// clients miss messages rather than holding up the caller.
func (h *Hub) BroadcastRaw(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[sessionID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] send buffer full for player %d in session %s, dropping message", client.playerID, sessionID)
		}
	}
}

// BroadcastToSession encodes message and sends it to a session's room.
func (h *Hub) BroadcastToSession(sessionID string, message interface{}) {
	if h.RoomSize(sessionID) == 0 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.BroadcastRaw(sessionID, data)
}

// Envelope is the shape of every server -> client message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// PublishSnapshot streams render snapshots; it implements game.SnapshotSink.
func (h *Hub) PublishSnapshot(sessionID string, snap game.Snapshot) {
	h.BroadcastToSession(sessionID, Envelope{Type: "board_snapshot", Data: snap})
}
