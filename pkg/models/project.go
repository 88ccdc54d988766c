// Package models contains domain types for taskhive-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a workspace owned by exactly one user. Members gain access via
// accepted invitations; the owner is never duplicated into Members.
type Project struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Members     []uuid.UUID `json:"members"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsOwner reports whether userID is the project owner. Ownership is
// immutable after creation and gates every project mutation and invitation.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// HasMember reports whether userID appears in the membership set.
func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// CanAccess reports whether userID may read the project and its tasks.
// The owner does not need to appear in Members for this to hold.
func (p *Project) CanAccess(userID uuid.UUID) bool {
	return p.IsOwner(userID) || p.HasMember(userID)
}
