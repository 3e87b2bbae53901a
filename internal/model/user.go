package model

import "time"

// User is an account that can authenticate and book tickets. Only the
// bcrypt hash of the password is ever stored.
type User struct {
	ID           uint64    `json:"id"`       // users.id
	Username     string    `json:"username"` // users.username
	Email        string    `json:"email"`    // users.email
	PasswordHash string    `json:"-"`        // users.password_hash, never serialized
	CreatedAt    time.Time `json:"created_at"`
}
