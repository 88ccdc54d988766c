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

// ProjectService defines the interface for project operations. Read access
// requires ownership or membership; mutations require ownership. Projects
// the caller cannot access behave as if they do not exist, so lookups never
// leak existence to outsiders.
type ProjectService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	Create(ctx context.Context, userID uuid.UUID, name, description string) (*models.Project, error)
	Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, userID, projectID uuid.UUID, name, description string) (*models.Project, error)
	Delete(ctx context.Context, userID, projectID uuid.UUID) error
	Members(ctx context.Context, userID, projectID uuid.UUID) ([]*models.User, error)
}

// projectService implements ProjectService.
type projectService struct {
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

// NewProjectService creates a new project service with dependencies.
func NewProjectService(projects repositories.ProjectRepository, logger *zap.Logger) ProjectService {
	return &projectService{
		projects: projects,
		logger:   logger,
	}
}

// List returns exactly the projects the caller owns or is a member of.
func (s *projectService) List(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	return s.projects.ListForUser(ctx, userID)
}

// Create makes the caller the owner of a new project.
func (s *projectService) Create(ctx context.Context, userID uuid.UUID, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", apperrors.ErrValidation)
	}

	project := &models.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     userID,
		Members:     []uuid.UUID{},
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner_id", userID.String()))
	return project, nil
}

// Get returns the project if the caller can access it.
func (s *projectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	return s.loadAccessible(ctx, userID, projectID)
}

// Update renames or re-describes the project. Owner only.
func (s *projectService) Update(ctx context.Context, userID, projectID uuid.UUID, name, description string) (*models.Project, error) {
	project, err := s.loadAccessible(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(userID) {
		return nil, apperrors.ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", apperrors.ErrValidation)
	}

	return s.projects.Update(ctx, projectID, name, description)
}

// Delete removes the project and, by cascade, its tasks, invitations and
// memberships. Owner only.
func (s *projectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	project, err := s.loadAccessible(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !project.IsOwner(userID) {
		return apperrors.ErrForbidden
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("Project deleted",
		zap.String("project_id", projectID.String()))
	return nil
}

// Members lists the users in the project's membership set.
func (s *projectService) Members(ctx context.Context, userID, projectID uuid.UUID) ([]*models.User, error) {
	if _, err := s.loadAccessible(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.projects.ListMembers(ctx, projectID)
}

// loadAccessible fetches the project and applies the access policy,
// reporting inaccessible projects as not found.
func (s *projectService) loadAccessible(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if !project.CanAccess(userID) {
		return nil, apperrors.ErrNotFound
	}
	return project, nil
}

// Ensure projectService implements ProjectService at compile time.
var _ ProjectService = (*projectService)(nil)
