// Package chat implements chat membership, the participant authorization
// guard, and message persistence on top of the durable store. Both the HTTP
// handlers and the real-time session layer go through this package, so the
// guard is enforced at every entry point.
package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/apperr"
	"github.com/Daniels4624P/Jules/internal/models"
	"github.com/Daniels4624P/Jules/internal/store"
)

// Pagination bounds for message pages.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Service coordinates chat membership, summaries, and messages.
type Service struct {
	store  store.DataStore
	logger zerolog.Logger
}

// NewService creates a chat service backed by the given store.
func NewService(st store.DataStore, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// RequireParticipant is the strict authorization guard used by every
// real-time and HTTP action that touches a chat. It always consults the
// durable store: NotFound if the chat does not exist, Forbidden if the user
// is not a participant, nil otherwise.
func (s *Service) RequireParticipant(ctx context.Context, userID, chatID int64) error {
	exists, err := s.store.ChatExists(ctx, chatID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to check chat", err)
	}
	if !exists {
		return apperr.Newf(apperr.NotFound, "chat %d not found", chatID)
	}

	member, err := s.store.IsParticipant(ctx, userID, chatID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to check membership", err)
	}
	if !member {
		return apperr.Newf(apperr.Forbidden, "not a participant of chat %d", chatID)
	}
	return nil
}

// CreateChat creates a chat between the creator and otherUserIDs. Two unique
// participants make a direct chat; more make a group chat that keeps its
// name. Every participant must resolve to an existing user before anything is
// written; the store insert itself is transactional.
func (s *Service) CreateChat(ctx context.Context, creatorID int64, name string, otherUserIDs []int64) (*models.ChatSummary, error) {
	ids := dedupe(append([]int64{creatorID}, otherUserIDs...))
	if len(ids) < 2 {
		return nil, apperr.New(apperr.InvalidInput, "a chat needs at least one other participant")
	}

	for _, id := range ids {
		if id <= 0 {
			return nil, apperr.Newf(apperr.InvalidInput, "invalid user id %d", id)
		}
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "failed to look up user", err)
		}
		if user == nil {
			return nil, apperr.Newf(apperr.NotFound, "user %d does not exist", id)
		}
	}

	isGroup := len(ids) > 2
	if !isGroup {
		name = ""
	} else {
		name = strings.TrimSpace(name)
	}

	created, err := s.store.CreateChat(ctx, name, isGroup, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to create chat", err)
	}

	s.logger.Info().
		Int64("chat_id", created.ID).
		Bool("is_group", created.IsGroup).
		Int("participants", len(ids)).
		Msg("chat created")

	return s.summarize(ctx, *created, creatorID)
}

// ListChats returns the user's chats, most recent first, enriched with
// participant lists.
func (s *Service) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperr.Newf(apperr.NotFound, "user %d does not exist", userID)
	}

	chats, err := s.store.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list chats", err)
	}
	return s.summarizeAll(ctx, chats, userID)
}

// SearchChats finds the user's chats matching term against the chat name or
// any participant's username.
func (s *Service) SearchChats(ctx context.Context, userID int64, term string) ([]models.ChatSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.New(apperr.InvalidInput, "searchTerm is required")
	}

	chats, err := s.store.SearchChats(ctx, userID, term)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to search chats", err)
	}
	return s.summarizeAll(ctx, chats, userID)
}

// SendMessage validates content, re-checks membership against the durable
// store, and appends the message. Room join state never substitutes for the
// membership check.
func (s *Service) SendMessage(ctx context.Context, senderID, chatID int64, content string) (*models.Message, error) {
	if chatID <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "chatId must be a positive integer")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.InvalidInput, "message content must not be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return nil, apperr.Newf(apperr.InvalidInput, "message content exceeds %d characters", models.MaxMessageLength)
	}

	if err := s.RequireParticipant(ctx, senderID, chatID); err != nil {
		return nil, err
	}

	msg, err := s.store.AppendMessage(ctx, chatID, senderID, content)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to store message", err)
	}
	return msg, nil
}

// Messages returns a page of the chat's messages for a participant,
// ascending by creation time. Limit is clamped to (0, MaxPageLimit].
func (s *Service) Messages(ctx context.Context, userID, chatID int64, limit, offset int) ([]models.Message, error) {
	if chatID <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "chatId must be a positive integer")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	if err := s.RequireParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessagePage(ctx, chatID, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list messages", err)
	}
	return messages, nil
}

func (s *Service) summarizeAll(ctx context.Context, chats []models.Chat, forUserID int64) ([]models.ChatSummary, error) {
	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, c := range chats {
		summary, err := s.summarize(ctx, c, forUserID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *Service) summarize(ctx context.Context, c models.Chat, forUserID int64) (*models.ChatSummary, error) {
	participants, err := s.store.Participants(ctx, c.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load participants", err)
	}

	others := make([]models.UserRef, 0, len(participants))
	for _, p := range participants {
		if p.ID != forUserID {
			others = append(others, p)
		}
	}

	return &models.ChatSummary{Chat: c, Participants: participants, Others: others}, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
