package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/repositories"
)

// CreateTaskInput carries the fields for task creation. AssigneeEmail is
// optional and resolved against registered users.
type CreateTaskInput struct {
	ProjectID     uuid.UUID
	Title         string
	Description   string
	Priority      string
	AssigneeEmail string
}

// UpdateTaskInput carries the mutable task fields. Nil pointers leave the
// corresponding field unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	AssigneeID  *uuid.UUID
}

// TaskService defines the interface for task operations. Every operation
// verifies that the caller can access the task's parent project; a task in
// an inaccessible project behaves as if it does not exist.
type TaskService interface {
	ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]*models.Task, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

// taskService implements TaskService.
type taskService struct {
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	logger   *zap.Logger
}

// NewTaskService creates a new task service with dependencies.
func NewTaskService(tasks repositories.TaskRepository, projects repositories.ProjectRepository, users repositories.UserRepository, logger *zap.Logger) TaskService {
	return &taskService{
		tasks:    tasks,
		projects: projects,
		users:    users,
		logger:   logger,
	}
}

// ListByProject returns the project's tasks, newest first.
func (s *taskService) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]*models.Task, error) {
	if err := s.requireProjectAccess(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

// Create adds a task to a project the caller can access.
func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	if err := s.requireProjectAccess(ctx, userID, input.ProjectID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", apperrors.ErrValidation)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", apperrors.ErrValidation, priority)
	}

	task := &models.Task{
		ID:          uuid.New(),
		ProjectID:   input.ProjectID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Status:      models.StatusTodo,
	}

	if input.AssigneeEmail != "" {
		assignee, err := s.users.GetByEmail(ctx, input.AssigneeEmail)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: assigned user not found", apperrors.ErrNotFound)
			}
			return nil, err
		}
		task.AssignedTo = &assignee.ID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Get returns a task the caller can access.
func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	return s.loadAccessible(ctx, userID, taskID)
}

// Update applies the provided field changes. Status transitions are
// unconstrained within the valid set.
func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadAccessible(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: task title is required", apperrors.ErrValidation)
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !models.IsValidPriority(*input.Priority) {
			return nil, fmt.Errorf("%w: invalid priority %q", apperrors.ErrValidation, *input.Priority)
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !models.IsValidStatus(*input.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", apperrors.ErrValidation, *input.Status)
		}
		task.Status = *input.Status
	}
	if input.AssigneeID != nil {
		if *input.AssigneeID == uuid.Nil {
			task.AssignedTo = nil
		} else {
			task.AssignedTo = input.AssigneeID
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes a task the caller can access.
func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, err := s.loadAccessible(ctx, userID, taskID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, taskID)
}

// loadAccessible fetches a task and re-verifies access against its parent
// project. Task IDs alone grant nothing.
func (s *taskService) loadAccessible(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectAccess(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// requireProjectAccess reports inaccessible projects as not found.
func (s *taskService) requireProjectAccess(ctx context.Context, userID, projectID uuid.UUID) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.CanAccess(userID) {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure taskService implements TaskService at compile time.
var _ TaskService = (*taskService)(nil)
