package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Daniels4624P/Jules/internal/apperr"
	"github.com/Daniels4624P/Jules/internal/metrics"
	"github.com/Daniels4624P/Jules/internal/models"
	"github.com/Daniels4624P/Jules/internal/store"
	"github.com/Daniels4624P/Jules/internal/token"
)

// Username validation: alphanumeric, hyphens, underscores, 3-30 chars.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

const minPasswordLength = 8

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the identity and token pair returned by register,
// login, and refresh.
type AuthResponse struct {
	User         models.UserRef `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// Register handles account creation.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRegex.MatchString(req.Username) {
		h.Error(w, apperr.New(apperr.InvalidInput, "username must be 3-30 characters, alphanumeric with hyphens and underscores only"))
		return
	}
	if len(req.Password) < minPasswordLength {
		h.Error(w, apperr.Newf(apperr.InvalidInput, "password must be at least %d characters", minPasswordLength))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, apperr.Wrap(apperr.Internal, "failed to hash password", err))
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			h.Error(w, apperr.New(apperr.Conflict, "username already taken"))
			return
		}
		h.Error(w, apperr.Wrap(apperr.Internal, "failed to create user", err))
		return
	}

	metrics.UsersRegistered.Inc()
	h.issueTokens(w, r, http.StatusCreated, user.Ref())
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles credential verification and token issuance.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.Error(w, apperr.Wrap(apperr.Internal, "failed to look up user", err))
		return
	}
	// The same message for unknown user and wrong password, so login
	// failures don't confirm which usernames exist.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, "invalid username or password"))
		return
	}

	h.issueTokens(w, r, http.StatusOK, user.Ref())
}

// RefreshRequest represents the refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a valid refresh token into a new token pair. The old
// token's JTI is revoked so it cannot be replayed.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	claims, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, token.Reason(err)))
		return
	}

	if h.redis != nil {
		revoked, err := h.redis.IsRefreshTokenRevoked(r.Context(), claims.ID)
		if err != nil {
			h.Error(w, apperr.Wrap(apperr.Internal, "failed to check token", err))
			return
		}
		if revoked {
			h.Error(w, apperr.New(apperr.Unauthenticated, token.ReasonInvalidCredential))
			return
		}
		if err := h.redis.RevokeRefreshToken(r.Context(), claims.ID, h.tokens.RefreshTTL()); err != nil {
			h.Error(w, apperr.Wrap(apperr.Internal, "failed to rotate token", err))
			return
		}
	}

	h.issueTokens(w, r, http.StatusOK, models.UserRef{ID: claims.UserID, Username: claims.Username})
}

// Logout revokes the supplied refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, apperr.New(apperr.InvalidInput, "invalid JSON body"))
		return
	}

	claims, err := h.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		h.Error(w, apperr.New(apperr.Unauthenticated, token.Reason(err)))
		return
	}

	if h.redis != nil {
		if err := h.redis.RevokeRefreshToken(r.Context(), claims.ID, h.tokens.RefreshTTL()); err != nil {
			h.Error(w, apperr.Wrap(apperr.Internal, "failed to revoke token", err))
			return
		}
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) issueTokens(w http.ResponseWriter, r *http.Request, status int, user models.UserRef) {
	access, err := h.tokens.IssueAccess(user)
	if err != nil {
		h.Error(w, apperr.Wrap(apperr.Internal, "failed to issue token", err))
		return
	}
	refresh, _, err := h.tokens.IssueRefresh(user)
	if err != nil {
		h.Error(w, apperr.Wrap(apperr.Internal, "failed to issue token", err))
		return
	}

	h.JSON(w, status, AuthResponse{User: user, AccessToken: access, RefreshToken: refresh})
}
