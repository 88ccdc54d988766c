package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/auth"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
	"github.com/taskhive-io/taskhive-engine/pkg/services"
)

// TaskListResponse for GET /api/tasks
type TaskListResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Total int            `json:"total"`
}

// CreateTaskRequest for POST /api/tasks
type CreateTaskRequest struct {
	ProjectID     uuid.UUID `json:"project_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Priority      string    `json:"priority,omitempty"`
	AssigneeEmail string    `json:"assignee_email,omitempty"`
}

// UpdateTaskRequest for PUT /api/tasks/{id}. Omitted fields are left
// unchanged; a null assigned_to would be indistinguishable from omitted, so
// clearing the assignee sends the zero UUID.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
}

// TasksHandler handles task HTTP requests.
type TasksHandler struct {
	taskService services.TaskService
	logger      *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/tasks", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/tasks", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/tasks/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/tasks/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/tasks?projectId={id}
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(r.URL.Query().Get("projectId"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", "Query parameter projectId is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	tasks, err := h.taskService.ListByProject(r.Context(), userID, projectID)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to list tasks")
		return
	}

	response := TaskListResponse{
		Tasks: tasks,
		Total: len(tasks),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.ProjectID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", "Field project_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, services.CreateTaskInput{
		ProjectID:     req.ProjectID,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to create task")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{id}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to get task")
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/tasks/{id}
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeID:  req.AssignedTo,
	})
	if err != nil {
		ServiceError(w, h.logger, err, "Failed to update task")
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{id}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	taskID, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		ServiceError(w, h.logger, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
