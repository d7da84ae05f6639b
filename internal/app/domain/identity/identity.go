// Package identity defines the user identity domain model.
package identity

import (
	"strings"
	"time"
)

// User is an identity record. Password credentials never appear here; each
// backend keeps its own hashed credential.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NormalizeEmail canonicalizes an email for case-insensitive comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
