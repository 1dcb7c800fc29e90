package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Daniels4624P/Jules/internal/api/middleware"
	"github.com/Daniels4624P/Jules/internal/apperr"
	"github.com/Daniels4624P/Jules/internal/chat"
	"github.com/Daniels4624P/Jules/internal/metrics"
)

// CreateChatRequest represents the chat creation request.
type CreateChatRequest struct {
	Name         string  `json:"name"`
	OtherUserIDs []int64 `json:"otherUserIds"`
}

// CreateChat handles chat creation (authenticated).
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	summary, err := h.chats.CreateChat(r.Context(), identity.UserID, req.Name, req.OtherUserIDs)
	if err != nil {
		h.Error(w, err)
		return
	}

	chatType := "direct"
	if summary.IsGroup {
		chatType = "group"
	}
	metrics.ChatsCreated.WithLabelValues(chatType).Inc()

	h.JSON(w, http.StatusCreated, summary)
}

// ListChats returns the caller's chats, most recent first.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	summaries, err := h.chats.ListChats(r.Context(), identity.UserID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, summaries)
}

// SearchChats finds the caller's chats matching the searchTerm query.
func (h *Handler) SearchChats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	summaries, err := h.chats.SearchChats(r.Context(), identity.UserID, r.URL.Query().Get("searchTerm"))
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, summaries)
}

// Messages returns a page of a chat's messages (authenticated, participants
// only).
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	chatID, err := chatIDParam(r)
	if err != nil {
		h.Error(w, err)
		return
	}

	limit := queryInt(r, "limit", chat.DefaultPageLimit)
	offset := queryInt(r, "offset", 0)

	messages, err := h.chats.Messages(r.Context(), identity.UserID, chatID, limit, offset)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, messages)
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessage appends a message to a chat over HTTP. The response shape is
// identical to the newMessage event delivered over the socket.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "authentication required"))
		return
	}

	chatID, err := chatIDParam(r)
	if err != nil {
		h.Error(w, err)
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	msg, err := h.chats.SendMessage(r.Context(), identity.UserID, chatID, req.Content)
	if err != nil {
		h.Error(w, err)
		return
	}

	metrics.MessagesSent.WithLabelValues("http").Inc()
	h.JSON(w, http.StatusCreated, msg)
}

func chatIDParam(r *http.Request) (int64, error) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || chatID <= 0 {
		return 0, apperr.New(apperr.InvalidInput, "chat id must be a positive integer")
	}
	return chatID, nil
}

func queryInt(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
