package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Daniels4624P/Jules/internal/metrics"
	"github.com/Daniels4624P/Jules/internal/store"
	"github.com/Daniels4624P/Jules/internal/token"
)

// Handler upgrades HTTP requests to websocket sessions. The credential is
// verified before the upgrade: no application event is ever processed for an
// unauthenticated connection.
type Handler struct {
	verifier *token.Manager
	users    store.UserStore
	hub      *Hub
	manager  *SessionManager
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the websocket endpoint handler. allowedOrigins empty
// means any origin is accepted.
func NewHandler(verifier *token.Manager, users store.UserStore, hub *Hub, manager *SessionManager, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		users:    users,
		hub:      hub,
		manager:  manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// ServeHTTP runs the handshake and, on success, hands the connection to its
// session pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.verifier.VerifyAccess(extractCredential(r))
	if err != nil {
		h.refuse(w, http.StatusUnauthorized, token.Reason(err))
		return
	}

	// The claim must still resolve to a real user; accounts can disappear
	// within a token's lifetime.
	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.refuse(w, http.StatusServiceUnavailable, token.ReasonVerificationUnavailable)
		return
	}
	if user == nil {
		h.refuse(w, http.StatusUnauthorized, token.ReasonInvalidCredential)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(uuid.NewString(), user.ID, user.Username, conn, h.hub, h.manager, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Handler) refuse(w http.ResponseWriter, status int, reason string) {
	metrics.HandshakeFailures.WithLabelValues(reason).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

// extractCredential reads the bearer credential from the connection's
// transport metadata: Authorization header, token query parameter, or the
// access_token cookie, in that order.
func extractCredential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if cred, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return cred
		}
	}
	if cred := r.URL.Query().Get("token"); cred != "" {
		return cred
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
