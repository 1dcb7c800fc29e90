package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/apperr"
	"github.com/Daniels4624P/Jules/internal/chat"
	"github.com/Daniels4624P/Jules/internal/metrics"
)

// SessionManager handles the session events of authenticated connections.
// joinChat and sendMessage re-verify membership against the durable store on
// every call; typing does not, because receipt is already scoped to the room
// membership enforced at join time.
type SessionManager struct {
	chats  *chat.Service
	hub    *Hub
	logger zerolog.Logger
}

// NewSessionManager creates a session manager.
func NewSessionManager(chats *chat.Service, hub *Hub, logger zerolog.Logger) *SessionManager {
	return &SessionManager{chats: chats, hub: hub, logger: logger}
}

// HandleEvent dispatches one client event. Failures are delivered as scoped
// socketError events and never terminate the connection.
func (m *SessionManager) HandleEvent(ctx context.Context, c *Client, raw []byte) {
	var evt ClientEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		m.sendError(c, "", "malformed event payload")
		return
	}

	metrics.SocketEvents.WithLabelValues(evt.Event).Inc()

	switch evt.Event {
	case EventJoinChat:
		m.handleJoin(ctx, c, evt.Data)
	case EventLeaveChat:
		m.handleLeave(c, evt.Data)
	case EventSendMessage:
		m.handleSend(ctx, c, evt.Data)
	case EventTyping:
		m.handleTyping(c, evt.Data)
	default:
		m.sendError(c, evt.Event, "unknown event")
	}
}

// handleJoin verifies membership against the durable store, then adds the
// connection to the room. Membership is never cached between joins.
func (m *SessionManager) handleJoin(ctx context.Context, c *Client, data json.RawMessage) {
	var p joinChatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID <= 0 {
		m.sendError(c, EventJoinChat, "chatId must be a positive integer")
		return
	}

	if err := m.chats.RequireParticipant(ctx, c.UserID, p.ChatID); err != nil {
		m.sendEventError(c, EventJoinChat, err)
		return
	}

	m.hub.Join(c.ID, p.ChatID)
	c.joined[p.ChatID] = struct{}{}
	c.Enqueue(EventChatJoined, RoomAckPayload{
		ChatID:  p.ChatID,
		Message: fmt.Sprintf("joined chat %d", p.ChatID),
	})
	c.logger.Debug().Int64("chat_id", p.ChatID).Msg("joined room")
}

// handleLeave is best-effort: malformed payloads are silently ignored and
// leaving a room never fails.
func (m *SessionManager) handleLeave(c *Client, data json.RawMessage) {
	var p joinChatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID <= 0 {
		return
	}

	m.hub.Leave(c.ID, p.ChatID)
	delete(c.joined, p.ChatID)
	c.Enqueue(EventChatLeft, RoomAckPayload{
		ChatID:  p.ChatID,
		Message: fmt.Sprintf("left chat %d", p.ChatID),
	})
}

// handleSend persists the message, then broadcasts the enriched row to the
// room. The sender is not excluded: its own client expects the newMessage
// event for UI confirmation. Sending does not require having joined the
// room; membership alone gates it.
func (m *SessionManager) handleSend(ctx context.Context, c *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		m.sendError(c, EventSendMessage, "malformed sendMessage payload")
		return
	}

	msg, err := m.chats.SendMessage(ctx, c.UserID, p.ChatID, p.Content)
	if err != nil {
		m.sendEventError(c, EventSendMessage, err)
		return
	}

	payload, err := json.Marshal(ServerEvent{Event: EventNewMessage, Data: msg})
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to marshal newMessage event")
		return
	}

	metrics.MessagesSent.WithLabelValues("socket").Inc()
	m.hub.Broadcast(p.ChatID, payload, "")
}

// handleTyping broadcasts the signal to the room, excluding the sender.
// No membership check: typing is ephemeral and loss-tolerant, and delivery
// is already scoped to connections that passed the join-time check.
func (m *SessionManager) handleTyping(c *Client, data json.RawMessage) {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID <= 0 {
		return
	}

	payload, err := json.Marshal(ServerEvent{Event: EventUserTyping, Data: UserTypingPayload{
		UserID:   c.UserID,
		Username: c.Username,
		ChatID:   p.ChatID,
		IsTyping: p.IsTyping,
	}})
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to marshal userTyping event")
		return
	}

	m.hub.Broadcast(p.ChatID, payload, c.ID)
}

func (m *SessionManager) sendEventError(c *Client, event string, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		c.logger.Error().Err(err).Str("event", event).Msg("event handling failed")
	}
	m.sendError(c, event, apperr.ClientMessage(err))
}

func (m *SessionManager) sendError(c *Client, event, message string) {
	metrics.SocketErrors.WithLabelValues(event).Inc()
	c.Enqueue(EventSocketError, SocketErrorPayload{Event: event, Message: message})
}
