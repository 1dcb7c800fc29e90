package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Daniels4624P/Jules/internal/token"
)

type contextKey string

// IdentityContextKey carries the verified identity claim through the request
// context.
const IdentityContextKey contextKey = "identity"

// AuthMiddleware verifies bearer access tokens. The same verifier instance
// gates the websocket handshake, so there is no weaker path into the system.
type AuthMiddleware struct {
	verifier *token.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the Authorization header and injects the identity
// claim into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var credential string
		if auth := r.Header.Get("Authorization"); auth != "" {
			credential, _ = strings.CutPrefix(auth, "Bearer ")
		}

		claims, err := m.verifier.VerifyAccess(credential)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, token.Reason(err))
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext retrieves the verified identity claim from the request
// context.
func IdentityFromContext(ctx context.Context) *token.Claims {
	claims, ok := ctx.Value(IdentityContextKey).(*token.Claims)
	if !ok {
		return nil
	}
	return claims
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
