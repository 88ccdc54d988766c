package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
)

// mockUserRepository is a configurable mock for testing services that
// resolve users.
type mockUserRepository struct {
	userByID         *models.User
	userByEmail      *models.User
	userByExternalID *models.User
	createErr        error
	getErr           error
	emailErr         error
	externalErr      error
	linkErr          error

	// Capture inputs for verification
	createdUser      *models.User
	linkedUserID     uuid.UUID
	linkedExternalID string
	linkedName       string
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.createdUser = user
	return m.createErr
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.userByID == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.userByID, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.emailErr != nil {
		return nil, m.emailErr
	}
	if m.userByEmail == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.userByEmail, nil
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if m.externalErr != nil {
		return nil, m.externalErr
	}
	if m.userByExternalID == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.userByExternalID, nil
}

func (m *mockUserRepository) LinkExternalID(ctx context.Context, userID uuid.UUID, externalID, name string) error {
	m.linkedUserID = userID
	m.linkedExternalID = externalID
	m.linkedName = name
	return m.linkErr
}

// mockProjectRepository is a configurable mock for testing ProjectService
// and the project access checks in TaskService and InvitationService.
type mockProjectRepository struct {
	project  *models.Project
	projects []*models.Project
	members  []*models.User

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error

	createdProject *models.Project
	updatedID      uuid.UUID
	updatedName    string
	updatedDesc    string
	deletedID      uuid.UUID
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.createdProject = project
	return m.createErr
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.project == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.project, nil
}

func (m *mockProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.projects, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Project, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updatedID = id
	m.updatedName = name
	m.updatedDesc = description
	return m.project, nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *mockProjectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.members, nil
}

// mockTaskRepository is a configurable mock for testing TaskService.
type mockTaskRepository struct {
	task  *models.Task
	tasks []*models.Task

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error

	createdTask *models.Task
	updatedTask *models.Task
	deletedID   uuid.UUID
}

func (m *mockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	m.createdTask = task
	return m.createErr
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.task == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.task, nil
}

func (m *mockTaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	m.updatedTask = task
	return m.updateErr
}

func (m *mockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.deletedID = id
	return m.deleteErr
}

// mockInvitationRepository is a configurable mock for testing
// InvitationService.
type mockInvitationRepository struct {
	invitation *models.Invitation
	pending    bool

	createErr  error
	getErr     error
	pendingErr error
	expireErr  error
	acceptErr  error

	createdInvitation *models.Invitation
	expiredID         uuid.UUID
	acceptedInvite    uuid.UUID
	acceptedProject   uuid.UUID
	acceptedUser      uuid.UUID
}

func (m *mockInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	m.createdInvitation = invitation
	return m.createErr
}

func (m *mockInvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.invitation == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.invitation, nil
}

func (m *mockInvitationRepository) HasPending(ctx context.Context, projectID uuid.UUID, email string) (bool, error) {
	if m.pendingErr != nil {
		return false, m.pendingErr
	}
	return m.pending, nil
}

func (m *mockInvitationRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	m.expiredID = id
	return m.expireErr
}

func (m *mockInvitationRepository) AcceptAndAddMember(ctx context.Context, invitationID, projectID, userID uuid.UUID) error {
	m.acceptedInvite = invitationID
	m.acceptedProject = projectID
	m.acceptedUser = userID
	return m.acceptErr
}

// mockMailer records invitation emails. Sends happen on a background
// goroutine, so delivery is signalled on a channel for tests to wait on.
type mockMailer struct {
	mu      sync.Mutex
	sendErr error

	to          string
	projectName string
	token       string
	delivered   chan struct{}
}

func newMockMailer() *mockMailer {
	return &mockMailer{delivered: make(chan struct{}, 1)}
}

func (m *mockMailer) SendInvitation(ctx context.Context, to, projectName, token string) error {
	m.mu.Lock()
	m.to = to
	m.projectName = projectName
	m.token = token
	m.mu.Unlock()
	select {
	case m.delivered <- struct{}{}:
	default:
	}
	return m.sendErr
}

// mockVerifier returns a fixed external identity.
type mockVerifier struct {
	identity *auth.ExternalIdentity
	err      error
}

func (m *mockVerifier) Verify(ctx context.Context, assertion string) (*auth.ExternalIdentity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}

func (m *mockVerifier) Close() {}

// mockTokenService mints a fixed credential.
type mockTokenService struct {
	token    string
	issueErr error

	issuedFor uuid.UUID
}

func (m *mockTokenService) Issue(userID uuid.UUID) (string, error) {
	m.issuedFor = userID
	if m.issueErr != nil {
		return "", m.issueErr
	}
	return m.token, nil
}

func (m *mockTokenService) Verify(token string) (uuid.UUID, error) {
	return uuid.Nil, auth.ErrInvalidCredential
}
