package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/database"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
)

// InvitationRepository defines the interface for invitation data access.
// Status transitions are conditional updates matching on status='pending',
// so concurrent consumers race safely: exactly one wins, the rest observe
// apperrors.ErrConflict.
type InvitationRepository interface {
	// Create persists a pending invitation. A concurrent duplicate for the
	// same (project, email) loses against the store's partial unique index
	// and returns apperrors.ErrConflict.
	Create(ctx context.Context, invitation *models.Invitation) error

	GetByToken(ctx context.Context, token string) (*models.Invitation, error)

	// HasPending reports whether a pending invitation exists for the
	// project and normalized email.
	HasPending(ctx context.Context, projectID uuid.UUID, email string) (bool, error)

	// MarkExpired transitions pending → expired. Returns ErrConflict if the
	// invitation already left the pending state.
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// AcceptAndAddMember atomically adds the user to the project membership
	// set (idempotently) and transitions the invitation pending → accepted.
	// Both writes share one transaction: membership is never granted while
	// the invitation stays pending. Returns ErrConflict if another accept
	// won the race.
	AcceptAndAddMember(ctx context.Context, invitationID, projectID, userID uuid.UUID) error
}

// invitationRepository implements InvitationRepository using PostgreSQL.
type invitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository.
func NewInvitationRepository(db *database.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

// Create persists a pending invitation.
func (r *invitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	now := time.Now()
	invitation.CreatedAt = now
	invitation.UpdatedAt = now
	invitation.Email = models.NormalizeEmail(invitation.Email)

	query := `
		INSERT INTO invitations (id, project_id, email, invited_by, token, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		invitation.ID,
		invitation.ProjectID,
		invitation.Email,
		invitation.InvitedBy,
		invitation.Token,
		invitation.Status,
		invitation.ExpiresAt,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetByToken retrieves an invitation by its token.
func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `
		SELECT id, project_id, email, invited_by, token, status, expires_at, created_at, updated_at
		FROM invitations
		WHERE token = $1`

	var invitation models.Invitation
	err := r.db.QueryRow(ctx, query, token).Scan(
		&invitation.ID,
		&invitation.ProjectID,
		&invitation.Email,
		&invitation.InvitedBy,
		&invitation.Token,
		&invitation.Status,
		&invitation.ExpiresAt,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &invitation, nil
}

// HasPending reports whether a pending invitation exists for (project, email).
func (r *invitationRepository) HasPending(ctx context.Context, projectID uuid.UUID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invitations
			WHERE project_id = $1 AND lower(email) = $2 AND status = 'pending'
		)`

	var exists bool
	err := r.db.QueryRow(ctx, query, projectID, models.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending invitation: %w", err)
	}

	return exists, nil
}

// MarkExpired transitions pending → expired with a conditional update.
func (r *invitationRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invitations
		SET status = 'expired', updated_at = $1
		WHERE id = $2 AND status = 'pending'`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark invitation expired: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

// AcceptAndAddMember grants membership and consumes the invitation in one
// transaction.
func (r *invitationRepository) AcceptAndAddMember(ctx context.Context, invitationID, projectID, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Consume the invitation first: the conditional update is the guard
	// against two accepts racing on the same token.
	result, err := tx.Exec(ctx, `
		UPDATE invitations
		SET status = 'accepted', updated_at = $1
		WHERE id = $2 AND status = 'pending'`,
		time.Now(), invitationID)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		err = apperrors.ErrConflict
		return err
	}

	// Idempotent membership add: set semantics, never a duplicate row.
	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING`,
		projectID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ensure invitationRepository implements InvitationRepository at compile time.
var _ InvitationRepository = (*invitationRepository)(nil)
