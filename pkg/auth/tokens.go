package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common session credential errors.
var (
	ErrMissingCredential = errors.New("missing session credential")
	ErrInvalidCredential = errors.New("invalid session credential")
)

// TokenService issues and verifies internal session credentials. Credentials
// are self-contained signed tokens: verification needs no store round-trip.
type TokenService interface {
	// Issue produces a signed credential embedding the user ID, expiring
	// after the configured TTL.
	Issue(userID uuid.UUID) (string, error)

	// Verify validates signature and expiry and returns the embedded user
	// ID. Malformed, badly signed and expired tokens all return
	// ErrInvalidCredential; the detail is not surfaced past this boundary.
	Verify(token string) (uuid.UUID, error)
}

// tokenService implements TokenService using HS256.
type tokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string, ttl time.Duration, issuer string) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// Issue produces a signed session credential for the user.
func (s *tokenService) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session credential: %w", err)
	}
	return signed, nil
}

// Verify validates a session credential and returns the embedded user ID.
func (s *tokenService) Verify(tokenString string) (uuid.UUID, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidCredential
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidCredential
	}

	return userID, nil
}

// Ensure tokenService implements TokenService at compile time.
var _ TokenService = (*tokenService)(nil)
