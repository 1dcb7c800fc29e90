package store

import (
	"context"
	"errors"

	"github.com/Daniels4624P/Jules/internal/models"
)

// ErrDuplicateUsername is returned by CreateUser when the username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrSenderMissing is returned by AppendMessage when the sender row is
// unexpectedly absent. With foreign keys intact this is unreachable.
var ErrSenderMissing = errors.New("sender record missing")

// UserStore defines durable user account operations.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	// GetUserByID returns (nil, nil) when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetUserByUsername returns (nil, nil) when the user does not exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// ChatStore defines durable chat and participant operations. The participant
// relation is the sole source of authorization truth for the real-time layer.
type ChatStore interface {
	ChatExists(ctx context.Context, chatID int64) (bool, error)
	IsParticipant(ctx context.Context, userID, chatID int64) (bool, error)
	// CreateChat inserts the chat and all participant rows in one
	// transaction; no partial state is ever observable.
	CreateChat(ctx context.Context, name string, isGroup bool, participantIDs []int64) (*models.Chat, error)
	// ListChatsForUser returns the user's chats, most recent first.
	ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error)
	// SearchChats matches chat name or any participant's username,
	// case-insensitive, restricted to chats the user participates in.
	SearchChats(ctx context.Context, userID int64, term string) ([]models.Chat, error)
	Participants(ctx context.Context, chatID int64) ([]models.UserRef, error)
}

// MessageStore defines the append-only message log. Neither operation checks
// authorization; callers must have passed the participant guard.
type MessageStore interface {
	// AppendMessage inserts and returns the message enriched with its sender.
	AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*models.Message, error)
	// ListMessagePage returns messages ascending by creation time (id as
	// tiebreak).
	ListMessagePage(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error)
}

// DataStore is the full durable store contract. Both PostgresStore and
// SQLiteStore implement it.
type DataStore interface {
	UserStore
	ChatStore
	MessageStore

	Close()
	Ping(ctx context.Context) error
}
