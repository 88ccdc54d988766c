package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/config"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/services"
)

// ExchangeRequest carries the externally-issued identity assertion for
// POST /api/auth/register and POST /api/auth/login.
type ExchangeRequest struct {
	Assertion string `json:"assertion"`
}

// ExchangeResponse returns the minted session credential with the resolved
// user. The same credential is also set as the session cookie for browsers.
type ExchangeResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthHandler handles identity exchange HTTP requests.
type AuthHandler struct {
	identityService services.IdentityService
	cfg             *config.Config
	logger          *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(identityService services.IdentityService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		cfg:             cfg,
		logger:          logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
// Exchange endpoints are unauthenticated; they mint the session credential.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

// Register handles POST /api/auth/register
// Resolves the assertion to a user, creating or linking the account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.identityService.Register)
}

// Login handles POST /api/auth/login
// Resolves the assertion against existing users only.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.identityService.Login)
}

func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, assertion string) (*services.ExchangeResult, error)) {
	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.Assertion == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", "Assertion is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := resolve(r.Context(), req.Assertion)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to exchange identity")
		return
	}

	http.SetCookie(w, auth.SessionCookie(result.Token, h.cfg.BaseURL, h.cfg.Auth.SessionTTL))

	response := ExchangeResponse{Token: result.Token, User: result.User}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
