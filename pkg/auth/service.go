package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session credential for
// browser navigation flows. API clients use the Authorization header.
const SessionCookieName = "session"

// AuthService extracts and verifies session credentials from requests.
// This abstraction enables clean separation between HTTP handling and
// authentication logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and verifies the session credential.
	// It checks for the token in:
	//   1. Cookie named "session" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the authenticated user ID, ErrMissingCredential when neither
	// source is present, or ErrInvalidCredential when the token fails
	// verification.
	ValidateRequest(r *http.Request) (uuid.UUID, error)
}

// authService implements AuthService.
type authService struct {
	tokens TokenService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService with the given token service.
func NewAuthService(tokens TokenService, logger *zap.Logger) AuthService {
	return &authService{
		tokens: tokens,
		logger: logger,
	}
}

// ValidateRequest extracts and verifies a session credential from the request.
func (s *authService) ValidateRequest(r *http.Request) (uuid.UUID, error) {
	var tokenString string
	var tokenSource string

	// Try cookie first (browser clients)
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = cookie.Value
		tokenSource = "cookie"
	} else {
		// Fallback to Authorization header (API clients)
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No session credential in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return uuid.Nil, ErrMissingCredential
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return uuid.Nil, ErrInvalidCredential
		}
		tokenString = parts[1]
		tokenSource = "header"
	}

	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.Debug("Session credential verification failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return uuid.Nil, err
	}

	return userID, nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
