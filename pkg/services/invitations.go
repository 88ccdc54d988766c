package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/mail"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/repositories"
)

// inviteTokenBytes is the entropy of invitation tokens. 32 random bytes,
// hex encoded, yields a 64-character token.
const inviteTokenBytes = 32

// mailDispatchTimeout bounds the background email send so an unreachable
// relay cannot pin goroutines indefinitely.
const mailDispatchTimeout = 30 * time.Second

// InvitationService manages the invitation lifecycle: pending invitations
// are created by project owners and consumed exactly once, transitioning to
// accepted (granting membership) or expired. Both terminal states are final.
type InvitationService interface {
	// Create issues a single-use, email-bound invitation and dispatches the
	// acceptance link. Only the project owner may invite, the owner's own
	// email is rejected, and at most one pending invitation exists per
	// (project, email).
	Create(ctx context.Context, projectID uuid.UUID, email string, inviterID uuid.UUID) (*models.Invitation, error)

	// Accept consumes the invitation named by token on behalf of the caller
	// and returns the joined project's ID. The caller's email must match
	// the invitation binding, case-insensitively.
	Accept(ctx context.Context, token string, callerID uuid.UUID) (uuid.UUID, error)
}

// invitationService implements InvitationService.
type invitationService struct {
	invitations repositories.InvitationRepository
	projects    repositories.ProjectRepository
	users       repositories.UserRepository
	mailer      mail.Mailer
	logger      *zap.Logger
}

// NewInvitationService creates a new invitation service with dependencies.
func NewInvitationService(invitations repositories.InvitationRepository, projects repositories.ProjectRepository, users repositories.UserRepository, mailer mail.Mailer, logger *zap.Logger) InvitationService {
	return &invitationService{
		invitations: invitations,
		projects:    projects,
		users:       users,
		mailer:      mailer,
		logger:      logger,
	}
}

// Create issues a pending invitation for the project.
func (s *invitationService) Create(ctx context.Context, projectID uuid.UUID, email string, inviterID uuid.UUID) (*models.Invitation, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", apperrors.ErrValidation)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(inviterID) {
		return nil, apperrors.ErrForbidden
	}

	// The owner holds full access already and never appears in the
	// membership set, so a self-invite is meaningless.
	inviter, err := s.users.GetByID(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	if models.EmailsMatch(inviter.Email, email) {
		return nil, fmt.Errorf("%w: the project owner already has access", apperrors.ErrValidation)
	}

	exists, err := s.invitations.HasPending(ctx, projectID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: invitation already sent", apperrors.ErrConflict)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: projectID,
		Email:     email,
		InvitedBy: inviterID,
		Token:     token,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(models.InvitationTTL),
	}

	// The partial unique index converts a concurrent duplicate into a
	// conflict even though the HasPending check passed.
	if err := s.invitations.Create(ctx, invitation); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: invitation already sent", apperrors.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("Invitation created",
		zap.String("project_id", projectID.String()),
		zap.String("invitation_id", invitation.ID.String()))

	// Fire-and-forget: delivery failure never rolls back the invitation and
	// never blocks the response path.
	go s.dispatch(invitation, project.Name)

	return invitation, nil
}

// Accept consumes the invitation and grants membership.
func (s *invitationService) Accept(ctx context.Context, token string, callerID uuid.UUID) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("%w: invite token missing", apperrors.ErrValidation)
	}

	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return uuid.Nil, err
	}

	invitation, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: invalid invitation", apperrors.ErrNotFound)
		}
		return uuid.Nil, err
	}

	// Expiry is enforced lazily, here and only here. The conditional update
	// keeps terminal states monotonic if another call got there first.
	if invitation.IsExpired(time.Now()) {
		if err := s.invitations.MarkExpired(ctx, invitation.ID); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			return uuid.Nil, err
		}
		return uuid.Nil, apperrors.ErrExpired
	}

	if !invitation.IsPending() {
		return uuid.Nil, fmt.Errorf("%w: invitation already used", apperrors.ErrConflict)
	}

	if !models.EmailsMatch(invitation.Email, caller.Email) {
		return uuid.Nil, fmt.Errorf("%w: this invite was not sent to your email", apperrors.ErrForbidden)
	}

	project, err := s.projects.GetByID(ctx, invitation.ProjectID)
	if err != nil {
		return uuid.Nil, err
	}

	// Owners never enter the membership set.
	if project.IsOwner(callerID) {
		return uuid.Nil, fmt.Errorf("%w: the project owner already has access", apperrors.ErrConflict)
	}

	// Membership add and status transition commit together; a concurrent
	// accept loses on the conditional update inside.
	if err := s.invitations.AcceptAndAddMember(ctx, invitation.ID, project.ID, callerID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return uuid.Nil, fmt.Errorf("%w: invitation already used", apperrors.ErrConflict)
		}
		return uuid.Nil, err
	}

	s.logger.Info("Invitation accepted",
		zap.String("project_id", project.ID.String()),
		zap.String("invitation_id", invitation.ID.String()))

	return project.ID, nil
}

// dispatch sends the invitation email off the request critical path.
func (s *invitationService) dispatch(invitation *models.Invitation, projectName string) {
	ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
	defer cancel()

	if err := s.mailer.SendInvitation(ctx, invitation.Email, projectName, invitation.Token); err != nil {
		s.logger.Warn("Failed to deliver invitation email",
			zap.String("invitation_id", invitation.ID.String()),
			zap.Error(err))
	}
}

// generateInviteToken produces a cryptographically random invitation token.
func generateInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
