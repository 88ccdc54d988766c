package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhive-io/taskhive-engine/pkg/apperrors"
	"github.com/taskhive-io/taskhive-engine/pkg/models"
)

func TestProjectsHandler_List_Success(t *testing.T) {
	service := &mockProjectService{projects: []*models.Project{
		{ID: uuid.New(), Name: "Hive Redesign"},
		{ID: uuid.New(), Name: "Winter Prep"},
	}}
	handler := NewProjectsHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProjectListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Projects, 2)
}

func TestProjectsHandler_Create_Success(t *testing.T) {
	project := &models.Project{ID: uuid.New(), Name: "Hive Redesign"}
	service := &mockProjectService{project: project}
	handler := NewProjectsHandler(service, zap.NewNop())

	body, _ := json.Marshal(CreateProjectRequest{Name: "Hive Redesign", Description: "migrate the combs"})
	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Hive Redesign", service.createdName)
	assert.Equal(t, "migrate the combs", service.createdDesc)
}

func TestProjectsHandler_Create_ValidationError(t *testing.T) {
	service := &mockProjectService{createErr: apperrors.ErrValidation}
	handler := NewProjectsHandler(service, zap.NewNop())

	body, _ := json.Marshal(CreateProjectRequest{Name: ""})
	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "validation_failed", errResp["error"])
}

func TestProjectsHandler_Get_NotFound(t *testing.T) {
	projectID := uuid.New()
	service := &mockProjectService{getErr: apperrors.ErrNotFound}
	handler := NewProjectsHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID.String(), nil)
	req.SetPathValue("id", projectID.String())
	rec := httptest.NewRecorder()

	handler.Get(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectsHandler_Update_Forbidden(t *testing.T) {
	projectID := uuid.New()
	service := &mockProjectService{updateErr: apperrors.ErrForbidden}
	handler := NewProjectsHandler(service, zap.NewNop())

	body, _ := json.Marshal(UpdateProjectRequest{Name: "renamed"})
	req := httptest.NewRequest(http.MethodPatch, "/api/projects/"+projectID.String(), bytes.NewReader(body))
	req.SetPathValue("id", projectID.String())
	rec := httptest.NewRecorder()

	handler.Update(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProjectsHandler_Delete_Success(t *testing.T) {
	projectID := uuid.New()
	service := &mockProjectService{}
	handler := NewProjectsHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/projects/"+projectID.String(), nil)
	req.SetPathValue("id", projectID.String())
	rec := httptest.NewRecorder()

	handler.Delete(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, projectID, service.deletedID)
	assert.Empty(t, rec.Body.String())
}

func TestProjectsHandler_Members_Success(t *testing.T) {
	projectID := uuid.New()
	service := &mockProjectService{members: []*models.User{
		{ID: uuid.New(), Email: "bob@example.com", Name: "Bob"},
	}}
	handler := NewProjectsHandler(service, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID.String()+"/members", nil)
	req.SetPathValue("id", projectID.String())
	rec := httptest.NewRecorder()

	handler.Members(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp MemberListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
}

func TestProjectsHandler_Unauthenticated(t *testing.T) {
	handler := NewProjectsHandler(&mockProjectService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
