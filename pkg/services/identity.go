// Package services contains the business logic of taskhive-engine. Services
// enforce the authorization policy and the invitation lifecycle; handlers
// stay thin and repositories stay dumb.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/repositories"
)

// ExchangeResult is the outcome of an identity exchange: a freshly minted
// session credential and the resolved internal user.
type ExchangeResult struct {
	Token string
	User  *models.User
}

// IdentityService bridges externally-issued identity assertions to internal
// users and session credentials.
type IdentityService interface {
	// Register resolves an assertion to a user, linking or creating the
	// account as needed, and mints a session credential. Repeated exchanges
	// for the same external subject always resolve to the same user.
	Register(ctx context.Context, assertion string) (*ExchangeResult, error)

	// Login resolves an assertion to an existing user only; an unknown
	// subject fails with ErrNotFound.
	Login(ctx context.Context, assertion string) (*ExchangeResult, error)

	// GetUser returns the profile for an authenticated user.
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// identityService implements IdentityService.
type identityService struct {
	users    repositories.UserRepository
	verifier auth.AssertionVerifier
	tokens   auth.TokenService
	logger   *zap.Logger
}

// NewIdentityService creates a new identity service with dependencies.
func NewIdentityService(users repositories.UserRepository, verifier auth.AssertionVerifier, tokens auth.TokenService, logger *zap.Logger) IdentityService {
	return &identityService{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register resolves an assertion, linking or creating the internal user.
func (s *identityService) Register(ctx context.Context, assertion string) (*ExchangeResult, error) {
	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	user, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	return s.mint(user)
}

// Login resolves an assertion against existing users only.
func (s *identityService) Login(ctx context.Context, assertion string) (*ExchangeResult, error) {
	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	user, err := s.users.GetByExternalID(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.mint(user)
}

// GetUser returns the profile for an authenticated user.
func (s *identityService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// resolveUser finds the internal user for an external identity: by subject
// first, then by email (linking in place), finally creating a new record.
func (s *identityService) resolveUser(ctx context.Context, identity *auth.ExternalIdentity) (*models.User, error) {
	user, err := s.users.GetByExternalID(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user by subject: %w", err)
	}

	if identity.Email != "" {
		user, err = s.users.GetByEmail(ctx, identity.Email)
		if err == nil {
			// Pre-provisioned or previously registered account: link the
			// external subject in place.
			if err := s.users.LinkExternalID(ctx, user.ID, identity.Subject, identity.Name); err != nil {
				return nil, fmt.Errorf("failed to link external identity: %w", err)
			}
			s.logger.Info("Linked external identity to existing user",
				zap.String("user_id", user.ID.String()))
			return s.users.GetByID(ctx, user.ID)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}

	// Create path: name and email are required for a fresh account.
	if identity.Name == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: missing required fields", apperrors.ErrValidation)
	}

	user = &models.User{
		ID:         uuid.New(),
		Email:      identity.Email,
		Name:       identity.Name,
		AvatarURL:  identity.Picture,
		ExternalID: identity.Subject,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Created user from external identity",
		zap.String("user_id", user.ID.String()))
	return user, nil
}

// mint issues a session credential for the user.
func (s *identityService) mint(user *models.User) (*ExchangeResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session credential: %w", err)
	}
	return &ExchangeResult{Token: token, User: user}, nil
}

// Ensure identityService implements IdentityService at compile time.
var _ IdentityService = (*identityService)(nil)
