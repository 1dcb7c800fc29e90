package ws

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
)

// Server-to-client event names.
const (
	EventChatJoined  = "chatJoined"
	EventChatLeft    = "chatLeft"
	EventNewMessage  = "newMessage"
	EventUserTyping  = "userTyping"
	EventSocketError = "socketError"
)

// ClientEvent is the envelope for every client-to-server event.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for every server-to-client event.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type joinChatPayload struct {
	ChatID int64 `json:"chatId"`
}

type sendMessagePayload struct {
	ChatID  int64  `json:"chatId"`
	Content string `json:"content"`
}

type typingPayload struct {
	ChatID   int64 `json:"chatId"`
	IsTyping bool  `json:"isTyping"`
}

// RoomAckPayload acknowledges a join or leave to the issuing connection.
type RoomAckPayload struct {
	ChatID  int64  `json:"chatId"`
	Message string `json:"message"`
}

// UserTypingPayload is broadcast to a room when a participant starts or stops
// typing. The sender is excluded from delivery.
type UserTypingPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	ChatID   int64  `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// SocketErrorPayload is a scoped error tagged with the event it relates to.
// It never terminates the connection.
type SocketErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
