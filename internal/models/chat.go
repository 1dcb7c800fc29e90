package models

import "time"

// Chat represents a conversation container. A direct chat has exactly two
// participants and no stored name; a group chat has three or more and keeps
// the name it was created with.
type Chat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	IsGroup   bool      `json:"isGroup"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSummary is a chat enriched with its participant lists. Others excludes
// the requesting user so clients can derive a direct chat's display name from
// the remaining participant.
type ChatSummary struct {
	Chat
	Participants []UserRef `json:"participants"`
	Others       []UserRef `json:"otherParticipants"`
}
