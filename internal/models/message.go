package models

import "time"

// MaxMessageLength is the maximum message content length in characters.
const MaxMessageLength = 2000

// Message represents a persisted chat message enriched with its sender.
// The same shape is returned from the HTTP messages endpoints and delivered
// as the newMessage real-time event.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    UserRef   `json:"sender"`
}
