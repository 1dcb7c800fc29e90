// mktoken mints a token pair for a user, for manual testing against a
// development server. Secrets default to the same development values the
// server uses.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Daniels4624P/Jules/internal/models"
	"github.com/Daniels4624P/Jules/internal/token"
)

func main() {
	userID := flag.Int64("user", 0, "User ID to mint tokens for")
	username := flag.String("username", "", "Username embedded in the claims")
	accessSecret := flag.String("access-secret", envOr("ACCESS_TOKEN_SECRET", "dev-access-secret"), "Access token signing secret")
	refreshSecret := flag.String("refresh-secret", envOr("REFRESH_TOKEN_SECRET", "dev-refresh-secret"), "Refresh token signing secret")
	ttl := flag.Duration("ttl", 15*time.Minute, "Access token lifetime")
	flag.Parse()

	if *userID <= 0 || *username == "" {
		fmt.Fprintln(os.Stderr, "Usage: mktoken -user <id> -username <name> [-ttl <duration>]")
		os.Exit(1)
	}

	manager := token.NewManager(token.Config{
		AccessSecret:  *accessSecret,
		RefreshSecret: *refreshSecret,
		AccessTTL:     *ttl,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	user := models.UserRef{ID: *userID, Username: *username}

	access, err := manager.IssueAccess(user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue access token: %v\n", err)
		os.Exit(1)
	}
	refresh, _, err := manager.IssueRefresh(user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue refresh token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Access token:  %s\n", access)
	fmt.Printf("Refresh token: %s\n", refresh)
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
