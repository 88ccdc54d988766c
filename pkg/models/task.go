package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work scoped to exactly one project.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task workflow statuses. Transitions between statuses are unconstrained.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusReview     = "review"
	StatusCompleted  = "completed"
)

// ValidPriorities contains all valid task priority values.
var ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// ValidStatuses contains all valid task status values.
var ValidStatuses = []string{StatusTodo, StatusInProgress, StatusReview, StatusCompleted}

// IsValidPriority checks if the given priority is valid.
func IsValidPriority(priority string) bool {
	for _, p := range ValidPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

// IsValidStatus checks if the given status is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
