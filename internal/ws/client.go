package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait is the deadline for a single write to the peer.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
	// maxEventSize bounds a single client event frame.
	maxEventSize = 8 * 1024
	// sendBuffer is the per-connection outbound queue size.
	sendBuffer = 256
)

// Client is one live, authenticated connection. The joined set is mutated
// only by this connection's own event handling, which runs sequentially in
// the read pump.
type Client struct {
	ID       string
	UserID   int64
	Username string

	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	manager *SessionManager
	joined  map[int64]struct{}
	closed  bool // guarded by hub.mu
	logger  zerolog.Logger
}

func newClient(id string, userID int64, username string, conn *websocket.Conn, hub *Hub, manager *SessionManager, logger zerolog.Logger) *Client {
	conn.SetReadLimit(maxEventSize)
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      hub,
		manager:  manager,
		joined:   make(map[int64]struct{}),
		logger:   logger.With().Str("conn_id", id).Int64("user_id", userID).Logger(),
	}
}

// Enqueue marshals a server event and queues it for this connection only.
func (c *Client) Enqueue(event string, data any) {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("failed to marshal server event")
		return
	}
	c.hub.send(c, payload)
}

// readPump processes inbound events sequentially until the connection
// drops, then tears the session down. Events from different connections run
// concurrently; a slow store call here never stalls another connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected websocket error")
			}
			return
		}

		// Event handling must outlive the connection: a send whose append
		// completes after disconnect still broadcasts.
		c.manager.HandleEvent(context.Background(), c, raw)
	}
}

// writePump flushes the outbound queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
