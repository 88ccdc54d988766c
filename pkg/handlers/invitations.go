package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/services"
)

// CreateInvitationRequest for POST /api/projects/{id}/invitations
type CreateInvitationRequest struct {
	Email string `json:"email"`
}

// CreateInvitationResponse acknowledges the invitation without exposing the
// token; the token travels only in the email.
type CreateInvitationResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ExpiresAt string    `json:"expires_at"`
}

// AcceptInvitationRequest for POST /api/invitations/accept
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// AcceptInvitationResponse returns the project joined.
type AcceptInvitationResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
}

// InvitationsHandler handles invitation HTTP requests.
type InvitationsHandler struct {
	invitationService services.InvitationService
	logger            *zap.Logger
}

// NewInvitationsHandler creates a new invitations handler.
func NewInvitationsHandler(invitationService services.InvitationService, logger *zap.Logger) *InvitationsHandler {
	return &InvitationsHandler{
		invitationService: invitationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the invitations handler's routes on the given mux.
func (h *InvitationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects/{id}/invitations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("POST /api/invitations/accept", authMiddleware.RequireAuth(h.Accept))
}

// Create handles POST /api/projects/{id}/invitations
func (h *InvitationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	invitation, err := h.invitationService.Create(r.Context(), projectID, req.Email, userID)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to create invitation")
		return
	}

	response := CreateInvitationResponse{
		ID:        invitation.ID,
		Email:     invitation.Email,
		Status:    invitation.Status,
		ExpiresAt: invitation.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Accept handles POST /api/invitations/accept
func (h *InvitationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	projectID, err := h.invitationService.Accept(r.Context(), req.Token, userID)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to accept invitation")
		return
	}

	if err := WriteJSON(w, http.StatusOK, AcceptInvitationResponse{ProjectID: projectID}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
