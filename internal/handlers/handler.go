package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/apperr"
	"github.com/Daniels4624P/Jules/internal/chat"
	"github.com/Daniels4624P/Jules/internal/store"
	"github.com/Daniels4624P/Jules/internal/token"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store  store.DataStore
	redis  *store.RedisStore
	chats  *chat.Service
	tokens *token.Manager
	logger zerolog.Logger

	// verboseErrors switches internal error bodies between generic and
	// detailed. It is the only place the flag is consulted.
	verboseErrors bool
}

// NewHandler creates a new Handler with the given dependencies. redis may be
// nil in development; refresh-token revocation is then skipped.
func NewHandler(st store.DataStore, redis *store.RedisStore, chats *chat.Service, tokens *token.Manager, logger zerolog.Logger, verboseErrors bool) *Handler {
	return &Handler{
		store:         st,
		redis:         redis,
		chats:         chats,
		tokens:        tokens,
		logger:        logger,
		verboseErrors: verboseErrors,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error renders an operational error with its taxonomy status. Internal
// errors are logged in full and rendered generically unless verbose errors
// are enabled.
func (h *Handler) Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	message := apperr.ClientMessage(err)

	if kind == apperr.Internal {
		h.logger.Error().Err(err).Msg("request failed")
		if h.verboseErrors {
			message = err.Error()
		}
	}

	h.JSON(w, apperr.HTTPStatus(kind), map[string]string{"error": message})
}
