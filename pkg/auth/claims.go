// Package auth provides session credentials for taskhive-engine. It issues
// and verifies signed bearer tokens, validates externally-issued identity
// assertions, and exposes HTTP middleware that injects the caller identity
// into the request context.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// SessionClaims is the claim set of internal session credentials. The
// subject carries the user ID; everything else is standard registered
// claims (exp, iat, iss).
type SessionClaims struct {
	jwt.RegisteredClaims
}

// GetUserID retrieves the authenticated user ID from the request context.
// Returns uuid.Nil and false if the request was not authenticated.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// RequireUserID extracts the user ID from context and returns an error if
// the request was not authenticated. Use in services that must not run
// without a caller identity.
func RequireUserID(ctx context.Context) (uuid.UUID, error) {
	userID, ok := GetUserID(ctx)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("authentication required: no user ID in context")
	}
	return userID, nil
}
