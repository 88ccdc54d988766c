package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation statuses. An invitation moves from pending to exactly one of
// the terminal states (accepted or expired) and never transitions back.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
)

// InvitationTTL is how long an invitation remains acceptable after creation.
const InvitationTTL = 24 * time.Hour

// Invitation grants the holder of its token the right to join a project,
// provided their email matches. The token is the only bearer secret in the
// system: it is never logged and only leaves the server inside the one-time
// notification email.
type Invitation struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Email     string    `json:"email"`
	InvitedBy uuid.UUID `json:"invited_by"`
	Token     string    `json:"-"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the invitation deadline has passed. Expiry is
// enforced lazily at acceptance time; there is no background sweep.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// IsPending reports whether the invitation can still be consumed.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationPending
}
