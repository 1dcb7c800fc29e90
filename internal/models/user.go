package models

import "time"

// User represents a registered account. The password hash never leaves the
// server; JSON responses only carry id and username.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Ref returns the public view of the user embedded in messages and
// participant lists.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// UserRef is the public projection of a user.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
