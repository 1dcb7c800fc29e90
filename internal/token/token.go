// Package token implements the identity verifier: a dual-secret JWT scheme
// with short-lived access tokens and long-lived, revocable refresh tokens.
// The same verifier gates the HTTP API and the websocket handshake.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/Daniels4624P/Jules/internal/models"
)

var (
	// ErrNoCredential is returned when no credential was supplied.
	ErrNoCredential = errors.New("no credential provided")
	// ErrInvalidCredential is returned when the credential fails verification.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned when the credential has expired.
	ErrExpiredCredential = errors.New("credential has expired")
)

// Handshake failure reasons, stable across releases so clients can switch on
// them.
const (
	ReasonNoCredential            = "no-credential"
	ReasonInvalidCredential       = "invalid-credential"
	ReasonExpiredCredential       = "expired-credential"
	ReasonVerificationUnavailable = "verification-unavailable"
)

// Reason maps a verification error to its stable machine-readable reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return ReasonNoCredential
	case errors.Is(err, ErrExpiredCredential):
		return ReasonExpiredCredential
	case errors.Is(err, ErrInvalidCredential):
		return ReasonInvalidCredential
	default:
		return ReasonVerificationUnavailable
	}
}

// Config holds the two signing secrets and their lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Claims is the verified identity claim carried by both token types.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies access and refresh tokens.
type Manager struct {
	cfg Config
}

// NewManager creates a Manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.Issuer == "" {
		cfg.Issuer = "jules"
	}
	return &Manager{cfg: cfg}
}

// IssueAccess signs a short-lived access token for the user.
func (m *Manager) IssueAccess(user models.UserRef) (string, error) {
	return m.sign(user, "", m.cfg.AccessSecret, m.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token. The returned JTI identifies
// the token for revocation.
func (m *Manager) IssueRefresh(user models.UserRef) (token string, jti string, err error) {
	jti = ulid.Make().String()
	token, err = m.sign(user, jti, m.cfg.RefreshSecret, m.cfg.RefreshTTL)
	return token, jti, err
}

func (m *Manager) sign(user models.UserRef, jti, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyAccess verifies an access token and returns its claims.
func (m *Manager) VerifyAccess(credential string) (*Claims, error) {
	return verify(credential, m.cfg.AccessSecret)
}

// VerifyRefresh verifies a refresh token and returns its claims, including
// the JTI used for revocation checks.
func (m *Manager) VerifyRefresh(credential string) (*Claims, error) {
	claims, err := verify(credential, m.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// RefreshTTL returns the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.cfg.RefreshTTL
}

func verify(credential, secret string) (*Claims, error) {
	if credential == "" {
		return nil, ErrNoCredential
	}

	parsed, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
