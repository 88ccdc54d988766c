package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an identity record. Users are created on the first successful
// identity exchange and are never hard-deleted.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	ExternalID string    `json:"-"` // identity-provider subject, never echoed
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. All email matching
// in the system (user lookup, invitation binding) is case-insensitive, so
// addresses are normalized before storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailsMatch reports whether two addresses refer to the same mailbox under
// the system's case-insensitive matching rules.
func EmailsMatch(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
