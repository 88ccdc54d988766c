package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/services"
)

// withUser injects the user ID into the request context, the way the
// middleware would after validating a credential.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
}

// mockIdentityService implements services.IdentityService for handler tests.
type mockIdentityService struct {
	result      *services.ExchangeResult
	user        *models.User
	registerErr error
	loginErr    error
	getErr      error
}

func (m *mockIdentityService) Register(ctx context.Context, assertion string) (*services.ExchangeResult, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.result, nil
}

func (m *mockIdentityService) Login(ctx context.Context, assertion string) (*services.ExchangeResult, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.result, nil
}

func (m *mockIdentityService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

// mockProjectService implements services.ProjectService for handler tests.
type mockProjectService struct {
	project  *models.Project
	projects []*models.Project
	members  []*models.User

	listErr    error
	createErr  error
	getErr     error
	updateErr  error
	deleteErr  error
	membersErr error

	createdName string
	createdDesc string
	deletedID   uuid.UUID
}

func (m *mockProjectService) List(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.projects, nil
}

func (m *mockProjectService) Create(ctx context.Context, userID uuid.UUID, name, description string) (*models.Project, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdName = name
	m.createdDesc = description
	return m.project, nil
}

func (m *mockProjectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.project, nil
}

func (m *mockProjectService) Update(ctx context.Context, userID, projectID uuid.UUID, name, description string) (*models.Project, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.project, nil
}

func (m *mockProjectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	m.deletedID = projectID
	return m.deleteErr
}

func (m *mockProjectService) Members(ctx context.Context, userID, projectID uuid.UUID) ([]*models.User, error) {
	if m.membersErr != nil {
		return nil, m.membersErr
	}
	return m.members, nil
}

// mockTaskService implements services.TaskService for handler tests.
type mockTaskService struct {
	task  *models.Task
	tasks []*models.Task

	listErr   error
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	createdInput services.CreateTaskInput
	updatedInput services.UpdateTaskInput
	deletedID    uuid.UUID
}

func (m *mockTaskService) ListByProject(ctx context.Context, userID, projectID uuid.UUID) ([]*models.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *mockTaskService) Create(ctx context.Context, userID uuid.UUID, input services.CreateTaskInput) (*models.Task, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdInput = input
	return m.task, nil
}

func (m *mockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.task, nil
}

func (m *mockTaskService) Update(ctx context.Context, userID, taskID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updatedInput = input
	return m.task, nil
}

func (m *mockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	m.deletedID = taskID
	return m.deleteErr
}

// mockInvitationService implements services.InvitationService for handler
// tests.
type mockInvitationService struct {
	invitation *models.Invitation
	projectID  uuid.UUID

	createErr error
	acceptErr error

	createdEmail  string
	acceptedToken string
}

func (m *mockInvitationService) Create(ctx context.Context, projectID uuid.UUID, email string, inviterID uuid.UUID) (*models.Invitation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdEmail = email
	return m.invitation, nil
}

func (m *mockInvitationService) Accept(ctx context.Context, token string, callerID uuid.UUID) (uuid.UUID, error) {
	if m.acceptErr != nil {
		return uuid.Nil, m.acceptErr
	}
	m.acceptedToken = token
	return m.projectID, nil
}
