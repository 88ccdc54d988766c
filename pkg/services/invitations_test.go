package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
)

func newTestInvitationService(invitations *mockInvitationRepository, projects *mockProjectRepository, users *mockUserRepository, mailer *mockMailer) InvitationService {
	return NewInvitationService(invitations, projects, users, mailer, zap.NewNop())
}

func waitForDelivery(t *testing.T, mailer *mockMailer) {
	t.Helper()
	select {
	case <-mailer.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("invitation email was never dispatched")
	}
}

func TestInvitationService_Create_Success(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), Name: "Hive Redesign", OwnerID: owner.ID}

	invitations := &mockInvitationRepository{}
	projects := &mockProjectRepository{project: project}
	mailer := newMockMailer()
	service := newTestInvitationService(invitations, projects, &mockUserRepository{userByID: owner}, mailer)

	invitation, err := service.Create(context.Background(), project.ID, "Bob@Example.com", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if invitation.Email != "bob@example.com" {
		t.Errorf("expected normalized email, got %q", invitation.Email)
	}
	if invitation.Status != models.InvitationPending {
		t.Errorf("expected pending status, got %q", invitation.Status)
	}
	if len(invitation.Token) != 64 {
		t.Errorf("expected 64-char hex token, got %d chars", len(invitation.Token))
	}
	ttl := time.Until(invitation.ExpiresAt)
	if ttl < 23*time.Hour || ttl > 24*time.Hour {
		t.Errorf("expected roughly 24h expiry, got %v", ttl)
	}
	if invitations.createdInvitation == nil {
		t.Fatal("expected invitation to be persisted")
	}

	waitForDelivery(t, mailer)
	if mailer.to != "bob@example.com" {
		t.Errorf("expected email to bob@example.com, got %q", mailer.to)
	}
	if mailer.token != invitation.Token {
		t.Error("expected dispatched token to match the persisted one")
	}
	if mailer.projectName != "Hive Redesign" {
		t.Errorf("expected project name in email, got %q", mailer.projectName)
	}
}

func TestInvitationService_Create_TokensDiffer(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	invitations := &mockInvitationRepository{}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, newMockMailer())

	first, err := service.Create(context.Background(), project.ID, "a@example.com", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := service.Create(context.Background(), project.ID, "b@example.com", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Token == second.Token {
		t.Error("expected distinct tokens per invitation")
	}
}

func TestInvitationService_Create_MemberIsNotOwner(t *testing.T) {
	ownerID := uuid.New()
	memberID := uuid.New()
	project := &models.Project{ID: uuid.New(), OwnerID: ownerID, Members: []uuid.UUID{memberID}}

	invitations := &mockInvitationRepository{}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{}, newMockMailer())

	_, err := service.Create(context.Background(), project.ID, "x@example.com", memberID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner member, got: %v", err)
	}
	if invitations.createdInvitation != nil {
		t.Error("should not have persisted an invitation")
	}
}

func TestInvitationService_Create_ProjectNotFound(t *testing.T) {
	service := newTestInvitationService(&mockInvitationRepository{}, &mockProjectRepository{}, &mockUserRepository{}, newMockMailer())

	_, err := service.Create(context.Background(), uuid.New(), "x@example.com", uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestInvitationService_Create_InvalidEmail(t *testing.T) {
	ownerID := uuid.New()
	project := &models.Project{ID: uuid.New(), OwnerID: ownerID}
	service := newTestInvitationService(&mockInvitationRepository{}, &mockProjectRepository{project: project}, &mockUserRepository{}, newMockMailer())

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := service.Create(context.Background(), project.ID, email, ownerID)
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("email %q: expected ErrValidation, got: %v", email, err)
		}
	}
}

func TestInvitationService_Create_DuplicatePending(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	invitations := &mockInvitationRepository{pending: true}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, newMockMailer())

	_, err := service.Create(context.Background(), project.ID, "bob@example.com", owner.ID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pending invite, got: %v", err)
	}
	if invitations.createdInvitation != nil {
		t.Error("should not have persisted a duplicate invitation")
	}
}

func TestInvitationService_Create_RaceLosesAtStore(t *testing.T) {
	// HasPending said no, but a concurrent create won the unique index.
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	invitations := &mockInvitationRepository{createErr: apperrors.ErrConflict}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, newMockMailer())

	_, err := service.Create(context.Background(), project.ID, "bob@example.com", owner.ID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestInvitationService_Create_OwnerSelfInvite(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	invitations := &mockInvitationRepository{}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, newMockMailer())

	_, err := service.Create(context.Background(), project.ID, "Owner@Example.COM", owner.ID)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for owner self-invite, got: %v", err)
	}
	if invitations.createdInvitation != nil {
		t.Error("should not have persisted an invitation for the owner")
	}
}

func TestInvitationService_Accept_OwnerStaysOutOfMembers(t *testing.T) {
	// An invitation bound to the owner's email must never move the owner
	// into the membership set.
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Email:     "owner@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", owner.ID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for owner accepting own project invite, got: %v", err)
	}
	if invitations.acceptedInvite != uuid.Nil {
		t.Error("should not have consumed the invitation")
	}
}

func TestInvitationService_Accept_Success(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: uuid.New()}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Email:     "bob@example.com",
		Token:     "tok",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: caller}, newMockMailer())

	projectID, err := service.Accept(context.Background(), "tok", caller.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if projectID != project.ID {
		t.Errorf("expected project ID %v, got %v", project.ID, projectID)
	}
	if invitations.acceptedInvite != invitation.ID {
		t.Errorf("expected invitation %v consumed, got %v", invitation.ID, invitations.acceptedInvite)
	}
	if invitations.acceptedUser != caller.ID {
		t.Errorf("expected member %v added, got %v", caller.ID, invitations.acceptedUser)
	}
}

func TestInvitationService_Accept_EmailCaseInsensitive(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "Bob@Example.COM"}
	project := &models.Project{ID: uuid.New(), OwnerID: uuid.New()}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: caller}, newMockMailer())

	if _, err := service.Accept(context.Background(), "tok", caller.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
}

func TestInvitationService_Accept_WrongEmail(t *testing.T) {
	// Carol holds Bob's invite link. The token alone does not grant access.
	carol := &models.User{ID: uuid.New(), Email: "carol@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: uuid.New()}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: carol}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", carol.ID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for mismatched email, got: %v", err)
	}
	if invitations.acceptedInvite != uuid.Nil {
		t.Error("should not have consumed the invitation")
	}
}

func TestInvitationService_Accept_Expired(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{}, &mockUserRepository{userByID: caller}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", caller.ID)
	if !errors.Is(err, apperrors.ErrExpired) {
		t.Fatalf("expected ErrExpired, got: %v", err)
	}
	if invitations.expiredID != invitation.ID {
		t.Error("expected deadline passage to be persisted")
	}
}

func TestInvitationService_Accept_ExpiredRace(t *testing.T) {
	// Another accept already flipped the row out of pending. The caller
	// still sees expiry, not a spurious internal error.
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	invitations := &mockInvitationRepository{invitation: invitation, expireErr: apperrors.ErrConflict}
	service := newTestInvitationService(invitations, &mockProjectRepository{}, &mockUserRepository{userByID: caller}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", caller.ID)
	if !errors.Is(err, apperrors.ErrExpired) {
		t.Fatalf("expected ErrExpired, got: %v", err)
	}
}

func TestInvitationService_Accept_AlreadyUsed(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Email:     "bob@example.com",
		Status:    models.InvitationAccepted,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation}
	service := newTestInvitationService(invitations, &mockProjectRepository{}, &mockUserRepository{userByID: caller}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", caller.ID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for consumed invitation, got: %v", err)
	}
}

func TestInvitationService_Accept_ConcurrentAccept(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: uuid.New()}
	invitation := &models.Invitation{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Email:     "bob@example.com",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	invitations := &mockInvitationRepository{invitation: invitation, acceptErr: apperrors.ErrConflict}
	service := newTestInvitationService(invitations, &mockProjectRepository{project: project}, &mockUserRepository{userByID: caller}, newMockMailer())

	_, err := service.Accept(context.Background(), "tok", caller.ID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict when losing the accept race, got: %v", err)
	}
}

func TestInvitationService_Accept_UnknownToken(t *testing.T) {
	caller := &models.User{ID: uuid.New(), Email: "bob@example.com"}
	service := newTestInvitationService(&mockInvitationRepository{}, &mockProjectRepository{}, &mockUserRepository{userByID: caller}, newMockMailer())

	_, err := service.Accept(context.Background(), "no-such-token", caller.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got: %v", err)
	}
}

func TestInvitationService_Accept_MissingToken(t *testing.T) {
	service := newTestInvitationService(&mockInvitationRepository{}, &mockProjectRepository{}, &mockUserRepository{}, newMockMailer())

	_, err := service.Accept(context.Background(), "", uuid.New())
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty token, got: %v", err)
	}
}

func TestInvitationService_Create_MailFailureIsNotFatal(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	project := &models.Project{ID: uuid.New(), OwnerID: owner.ID}
	mailer := newMockMailer()
	mailer.sendErr = errors.New("relay unreachable")
	service := newTestInvitationService(&mockInvitationRepository{}, &mockProjectRepository{project: project}, &mockUserRepository{userByID: owner}, mailer)

	invitation, err := service.Create(context.Background(), project.ID, "bob@example.com", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if invitation.Status != models.InvitationPending {
		t.Errorf("expected invitation to stay pending, got %q", invitation.Status)
	}
	waitForDelivery(t, mailer)
}
