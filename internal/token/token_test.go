package token

import (
	"errors"
	"testing"
	"time"

	"github.com/Daniels4624P/Jules/internal/models"
)

func testManager() *Manager {
	return NewManager(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	user := models.UserRef{ID: 42, Username: "alice"}

	tok, err := m.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	claims, err := m.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Issuer != "jules" {
		t.Errorf("Issuer = %q, want jules", claims.Issuer)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager()
	user := models.UserRef{ID: 7, Username: "bob"}

	tok, jti, err := m.IssueRefresh(user)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if jti == "" {
		t.Fatal("IssueRefresh returned empty jti")
	}

	claims, err := m.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.ID != jti {
		t.Errorf("claims.ID = %q, want %q", claims.ID, jti)
	}
	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}
}

func TestVerifyAccessRejectsEmptyCredential(t *testing.T) {
	m := testManager()
	if _, err := m.VerifyAccess(""); !errors.Is(err, ErrNoCredential) {
		t.Errorf("VerifyAccess(\"\") = %v, want ErrNoCredential", err)
	}
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	m := testManager()
	if _, err := m.VerifyAccess("not.a.token"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyAccessRejectsWrongSecret(t *testing.T) {
	m := testManager()
	other := NewManager(Config{
		AccessSecret:  "a-different-secret",
		RefreshSecret: "another-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	tok, err := other.IssueAccess(models.UserRef{ID: 1, Username: "mallory"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestAccessAndRefreshSecretsAreIndependent(t *testing.T) {
	m := testManager()
	user := models.UserRef{ID: 3, Username: "carol"}

	access, err := m.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := m.IssueRefresh(user)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	// An access token must not pass refresh verification, and vice versa.
	if _, err := m.VerifyRefresh(access); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("VerifyRefresh(access) = %v, want ErrInvalidCredential", err)
	}
	if _, err := m.VerifyAccess(refresh); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("VerifyAccess(refresh) = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	m := NewManager(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	})

	tok, err := m.IssueAccess(models.UserRef{ID: 9, Username: "dave"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrExpiredCredential) {
		t.Errorf("err = %v, want ErrExpiredCredential", err)
	}
}

func TestVerifyRefreshRequiresJTI(t *testing.T) {
	// Sign a refresh-secret token through the access path so it has no jti.
	m := NewManager(Config{
		AccessSecret:  "shared-secret",
		RefreshSecret: "shared-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	tok, err := m.IssueAccess(models.UserRef{ID: 5, Username: "erin"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := m.VerifyRefresh(tok); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNoCredential, ReasonNoCredential},
		{ErrInvalidCredential, ReasonInvalidCredential},
		{ErrExpiredCredential, ReasonExpiredCredential},
		{errors.New("store unreachable"), ReasonVerificationUnavailable},
	}
	for _, tc := range cases {
		if got := Reason(tc.err); got != tc.want {
			t.Errorf("Reason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
