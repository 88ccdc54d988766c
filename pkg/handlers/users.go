package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/services"
)

// UsersHandler serves the authenticated user's profile.
type UsersHandler struct {
	identityService services.IdentityService
	logger          *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(identityService services.IdentityService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		identityService: identityService,
		logger:          logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/users/me", authMiddleware.RequireAuth(h.Me))
}

// Me handles GET /api/users/me
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.identityService.GetUser(r.Context(), userID)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to load profile")
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
