package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence/file"
	"github.com/weftworks/weft/pkg/registry"
	"github.com/weftworks/weft/pkg/services"
	"github.com/weftworks/weft/pkg/web"
	"github.com/weftworks/weft/pkg/workflow"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	p := file.NewPersistence(t.TempDir())
	r := registry.NewDefaultRegistry(registry.Deps{Logger: logger})
	executor := workflow.NewExecutor(p, r, logger)

	workflowService := services.NewWorkflow(p, r, logger)
	executionService := services.NewExecution(p, executor, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(workflowService, executionService, validate, r)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))

	return out
}

func manualDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Start: "start",
		Nodes: map[string]*models.WorkflowNode{
			"start": {ID: "start", Type: models.NodeTypeTriggerManual, Name: "Start"},
		},
	}
}

func createTestWorkflow(t *testing.T, app *fiber.App) models.Workflow {
	t.Helper()

	resp := postJSON(t, app, "/workflows", web.CreateWorkflowRequest{
		Name:       "API Test Workflow",
		Owner:      "test-user",
		Definition: manualDefinition(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody[models.Workflow](t, resp)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestAPIHandlers_GetNodeTypes(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/node-types", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		NodeTypes []web.NodeTypeResponse `json:"node_types"`
	}](t, resp)

	require.NotEmpty(t, body.NodeTypes)

	types := make([]string, 0, len(body.NodeTypes))
	for _, nt := range body.NodeTypes {
		types = append(types, nt.Type)
		assert.NotEmpty(t, nt.Category)
	}

	assert.Contains(t, types, models.NodeTypeTriggerManual)
	assert.Contains(t, types, "action.http_request")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/node-types?category=trigger", nil))
	require.NoError(t, err)

	filtered := decodeBody[struct {
		NodeTypes []web.NodeTypeResponse `json:"node_types"`
	}](t, resp)

	require.NotEmpty(t, filtered.NodeTypes)

	for _, nt := range filtered.NodeTypes {
		assert.Equal(t, "trigger", nt.Category)
	}
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	app := setupTestApp(t)

	created := createTestWorkflow(t, app)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "API Test Workflow", created.Name)
	assert.Equal(t, models.WorkflowStatusActive, created.Status)
	assert.Equal(t, "test-user", created.Owner)

	// The request definition carries no id or name; the service backfills
	// both from the stored row.
	require.NotNil(t, created.Definition)
	assert.Equal(t, created.ID, created.Definition.ID)
	assert.Equal(t, "API Test Workflow", created.Definition.Name)
}

func TestAPIHandlers_CreateWorkflow_Invalid(t *testing.T) {
	app := setupTestApp(t)

	resp := postJSON(t, app, "/workflows", web.CreateWorkflowRequest{
		Name: "No Definition",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/workflows", web.CreateWorkflowRequest{
		Name:       "ab",
		Definition: manualDefinition(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown node type fails definition validation in the service layer.
	def := manualDefinition()
	def.Nodes["start"].Type = "action.teleport"

	resp = postJSON(t, app, "/workflows", web.CreateWorkflowRequest{
		Name:       "Bad Node",
		Definition: def,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	fetched := decodeBody[models.Workflow](t, resp)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestAPIHandlers_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	name := "Renamed Workflow"
	active := false

	body, err := json.Marshal(web.UpdateWorkflowRequest{Name: &name, Active: &active})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/workflows/"+created.ID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[models.Workflow](t, resp)
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.Equal(t, models.WorkflowStatusInactive, updated.Status)
	assert.False(t, updated.Active)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIHandlers_ValidateWorkflow(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/validate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[services.ValidationResult](t, resp)
	assert.True(t, result.Valid)
}

func TestAPIHandlers_ExecuteWorkflow_Sync(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/execute?wait=true", web.ExecuteWorkflowRequest{
		Input: map[string]any{"source": "test"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	execution := decodeBody[models.Execution](t, resp)
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, created.ID, execution.WorkflowID)

	// History and logs are visible afterwards.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID+"/executions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	history := decodeBody[struct {
		Executions []models.Execution `json:"executions"`
		Count      int                `json:"count"`
	}](t, resp)
	assert.Equal(t, 1, history.Count)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+execution.ID+"/logs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	logs := decodeBody[struct {
		Logs  []models.ExecutionLog `json:"logs"`
		Count int                   `json:"count"`
	}](t, resp)
	assert.NotEmpty(t, logs.Logs)
}

func TestAPIHandlers_ExecuteWorkflow_Async(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/execute", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	accepted := decodeBody[web.ExecutionAcceptedResponse](t, resp)
	assert.NotEmpty(t, accepted.ExecutionID)
	assert.Equal(t, string(models.ExecutionStatusPending), accepted.Status)

	// The record exists immediately, even if the run has not finished.
	getResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+accepted.ExecutionID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	getResp.Body.Close()
}

func TestAPIHandlers_ExecuteWorkflow_Inactive(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	active := false
	body, err := json.Marshal(web.UpdateWorkflowRequest{Active: &active})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/workflows/"+created.ID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/workflows/"+created.ID+"/execute?wait=true", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIHandlers_ResumeExecution_NotPaused(t *testing.T) {
	app := setupTestApp(t)
	created := createTestWorkflow(t, app)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/execute?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	execution := decodeBody[models.Execution](t, resp)

	resp = postJSON(t, app, "/executions/"+execution.ID+"/resume", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAPIHandlers_GetExecution_NotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/executions/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
