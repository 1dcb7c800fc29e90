package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Daniels4624P/Jules/internal/models"
)

// SQLiteStore handles SQLite database operations. It implements the same
// DataStore contract as PostgresStore and serves development and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/jules.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/jules.db"
	}

	// Ensure directory exists for file-backed databases
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Each pooled connection to :memory: would see its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		is_group INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chat_participants (
		chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (chat_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		sender_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chat_participants_user ON chat_participants(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages(chat_id, created_at, id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
	`, username, passwordHash, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ChatExists reports whether the chat exists.
func (s *SQLiteStore) ChatExists(ctx context.Context, chatID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM chats WHERE id = ?)
	`, chatID).Scan(&exists)
	return exists, err
}

// IsParticipant reports whether the user is a participant of the chat.
func (s *SQLiteStore) IsParticipant(ctx context.Context, userID, chatID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat_participants
			WHERE chat_id = ? AND user_id = ?
		)
	`, chatID, userID).Scan(&exists)
	return exists, err
}

// CreateChat inserts the chat and all of its participant rows in a single
// transaction. Any failure rolls the whole creation back.
func (s *SQLiteStore) CreateChat(ctx context.Context, name string, isGroup bool, participantIDs []int64) (*models.Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var storedName any
	if isGroup && name != "" {
		storedName = name
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO chats (name, is_group, created_at)
		VALUES (?, ?, ?)
	`, storedName, isGroup, now)
	if err != nil {
		return nil, err
	}

	chatID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_participants (chat_id, user_id)
			VALUES (?, ?)
		`, chatID, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	chat := &models.Chat{ID: chatID, IsGroup: isGroup, CreatedAt: now}
	if isGroup {
		chat.Name = name
	}
	return chat, nil
}

// ListChatsForUser retrieves the user's chats, most recent first.
func (s *SQLiteStore) ListChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, COALESCE(c.name, ''), c.is_group, c.created_at
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id
		WHERE cp.user_id = ?
		ORDER BY c.created_at DESC, c.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatRows(rows)
}

// SearchChats finds the user's chats whose name or any participant's username
// contains the term, case-insensitive.
func (s *SQLiteStore) SearchChats(ctx context.Context, userID int64, term string) ([]models.Chat, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, COALESCE(c.name, ''), c.is_group, c.created_at
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id
		JOIN chat_participants other ON other.chat_id = c.id
		JOIN users u ON u.id = other.user_id
		WHERE cp.user_id = ?
		  AND (LOWER(COALESCE(c.name, '')) LIKE ? OR LOWER(u.username) LIKE ?)
		ORDER BY c.created_at DESC, c.id DESC
	`, userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChatRows(rows)
}

// Participants retrieves the chat's participants.
func (s *SQLiteStore) Participants(ctx context.Context, chatID int64) ([]models.UserRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username
		FROM users u
		JOIN chat_participants cp ON cp.user_id = u.id
		WHERE cp.chat_id = ?
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
func (s *SQLiteStore) AppendMessage(ctx context.Context, chatID, senderID int64, content string) (*models.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, chatID, senderID, content, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
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

	return &models.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
		Sender:    sender.Ref(),
	}, nil
}

// ListMessagePage retrieves a page of messages ascending by creation time.
func (s *SQLiteStore) ListMessagePage(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at, u.id, u.username
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = ?
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT ? OFFSET ?
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

func scanChatRows(rows *sql.Rows) ([]models.Chat, error) {
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
