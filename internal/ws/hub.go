// Package ws implements the real-time session layer: the authenticated
// websocket handshake, per-connection event handling, and room fan-out.
package ws

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/metrics"
)

// Hub is the room router: it maps chats to the live connections currently
// joined to them and fans payloads out to those connections. It is
// process-local; a single process owns all live connections for the rooms it
// serves. All state is guarded by one lock, and no store I/O ever happens
// while the lock is held.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[int64]map[string]struct{}
	logger  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[int64]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a connected client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	c.closed = false
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()

	metrics.LiveConnections.Inc()
	h.logger.Info().
		Str("conn_id", c.ID).
		Int64("user_id", c.UserID).
		Int("total", total).
		Msg("client connected")
}

// Unregister removes a client from the hub and from every room it joined,
// then closes its send channel. Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	c.closed = true
	h.removeFromAllRoomsLocked(c.ID)
	total := len(h.clients)
	h.mu.Unlock()

	// Close the channel after releasing the lock
	close(c.send)

	metrics.LiveConnections.Dec()
	h.logger.Info().
		Str("conn_id", c.ID).
		Int64("user_id", c.UserID).
		Int("total", total).
		Msg("client disconnected")
}

// Join adds the connection to the chat's room. Idempotent.
func (h *Hub) Join(connID string, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[connID]; !ok {
		return
	}
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[string]struct{})
	}
	h.rooms[chatID][connID] = struct{}{}
}

// Leave removes the connection from the chat's room. Idempotent, no-op if
// absent.
func (h *Hub) Leave(connID string, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(connID, chatID)
}

// LeaveAll removes the connection from every room it was in. Invoked on
// disconnect.
func (h *Hub) LeaveAll(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromAllRoomsLocked(connID)
}

func (h *Hub) leaveLocked(connID string, chatID int64) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

func (h *Hub) removeFromAllRoomsLocked(connID string) {
	for chatID, room := range h.rooms {
		if _, ok := room[connID]; ok {
			h.leaveLocked(connID, chatID)
		}
	}
}

// Broadcast delivers payload to every connection currently in the chat's
// room, except excludeConnID when set. The target set is resolved under the
// read lock; delivery goes through each client's buffered send channel so a
// slow consumer never blocks the caller. Clients whose buffers are full are
// dropped.
func (h *Hub) Broadcast(chatID int64, payload []byte, excludeConnID string) {
	var failed []*Client

	h.mu.RLock()
	for connID := range h.rooms[chatID] {
		if connID == excludeConnID {
			continue
		}
		c, ok := h.clients[connID]
		if !ok || c.closed {
			continue
		}
		select {
		case c.send <- payload:
			metrics.BroadcastsDelivered.Inc()
		default:
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.logger.Warn().
			Str("conn_id", c.ID).
			Int64("chat_id", chatID).
			Msg("dropping client with full send buffer")
		h.Unregister(c)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// send enqueues payload for a single client if it is still registered.
func (h *Hub) send(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.ID]; !ok || c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// InRoom reports whether the connection is currently in the chat's room.
func (h *Hub) InRoom(connID string, chatID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[chatID][connID]
	return ok
}

// RoomSize returns how many connections are in the chat's room.
func (h *Hub) RoomSize(chatID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[chatID])
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// CloseAll closes every live connection. Used during shutdown; the read
// pumps observe the closed connections and unregister themselves.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.conn != nil {
			c.conn.Close()
		}
	}
}
