package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Daniels4624P/Jules/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at
	`, username, passwordHash).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = $1
	`, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ChatExists reports whether the chat exists.
func (s *PostgresStore) ChatExists(ctx context.Context, chatID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1)
	`, chatID).Scan(&exists)
	return exists, err
}

// IsParticipant reports whether the user is a participant of the chat.
func (s *PostgresStore) IsParticipant(ctx context.Context, userID, chatID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat_participants
			WHERE chat_id = $1 AND user_id = $2
		)
	`, chatID, userID).Scan(&exists)
	return exists, err
}

// CreateChat inserts the chat and all of its participant rows in a single
// transaction. Any failure rolls the whole creation back.
func (s *PostgresStore) CreateChat(ctx context.Context, name string, isGroup bool, participantIDs []int64) (*models.Chat, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	chat := &models.Chat{}
	var storedName *string
	if isGroup && name != "" {
		storedName = &name
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO chats (name, is_group)
		VALUES ($1, $2)
		RETURNING id, COALESCE(name, ''), is_group, created_at
	`, storedName, isGroup).Scan(
		&chat.ID,
		&chat.Name,
		&chat.IsGroup,
		&chat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, userID := range participantIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_participants (chat_id, user_id)
			VALUES ($1, $2)
		`, chat.ID, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return chat, nil
}

// ListChatsForUser retrieves the user's chats, most recent first.
func (s *PostgresStore) ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, COALESCE(c.name, ''), c.is_group, c.created_at
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}

// SearchChats finds the user's chats whose name or any participant's username
// contains the term, case-insensitive.
func (s *PostgresStore) SearchChats(ctx context.Context, userID int64, term string) ([]models.Chat, error) {
	pattern := "%" + term + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT c.id, COALESCE(c.name, ''), c.is_group, c.created_at
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id
		JOIN chat_participants other ON other.chat_id = c.id
		JOIN users u ON u.id = other.user_id
		WHERE cp.user_id = $1
		  AND (c.name ILIKE $2 OR u.username ILIKE $2)
		ORDER BY c.created_at DESC, c.id DESC
	`, userID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChats(rows)
}

// Participants retrieves the chat's participants.
func (s *PostgresStore) Participants(ctx context.Context, chatID int64) ([]models.UserRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username
		FROM users u
		JOIN chat_participants cp ON cp.user_id = u.id
		WHERE cp.chat_id = $1
		ORDER BY u.id
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.UserRef
	for rows.Next() {
		var u models.UserRef
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		participants = append(participants, u)
	}
	return participants, rows.Err()
}

// AppendMessage inserts a message and returns it enriched with its sender.
func (s *PostgresStore) AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*models.Message, error) {
	msg := &models.Message{ChatID: chatID, SenderID: senderID, Content: content}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, chatID, senderID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	sender, err := s.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrSenderMissing
	}
	msg.Sender = sender.Ref()
	return msg, nil
}

// ListMessagePage retrieves a page of messages ascending by creation time.
func (s *PostgresStore) ListMessagePage(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at, u.id, u.username
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $2 OFFSET $3
	`, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt, &m.Sender.ID, &m.Sender.Username); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func scanChats(rows pgx.Rows) ([]models.Chat, error) {
	var chats []models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
