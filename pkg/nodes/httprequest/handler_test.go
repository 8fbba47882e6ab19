package httprequest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

func testContext(input map[string]any) *models.ExecutionContext {
	return models.NewExecutionContext(&models.WorkflowDefinition{ID: "wf-1"}, "exec-1", "user-1", input)
}

func TestHandler_Execute_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "count": 3})
	}))
	defer server.Close()

	handler := NewHandler(nil)
	node := &models.WorkflowNode{
		ID:         "fetch",
		Parameters: map[string]any{"url": server.URL},
	}

	result, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.NoError(t, err)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", output["status"])
	assert.Equal(t, float64(3), output["count"])
	assert.Equal(t, http.StatusOK, result.Metadata["status"])
}

func TestHandler_Execute_POSTWithBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var body map[string]any

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "o-42", body["order_id"])

		_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true})
	}))
	defer server.Close()

	handler := NewHandler(server.Client())
	node := &models.WorkflowNode{
		ID: "submit",
		Parameters: map[string]any{
			"url":    server.URL,
			"method": "post",
			"headers": map[string]any{
				"Authorization": "Bearer token-1",
			},
			"body": map[string]any{"order_id": "o-42"},
		},
	}

	result, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.NoError(t, err)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, output["accepted"])
}

func TestHandler_Execute_TemplatedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"found": true})
	}))
	defer server.Close()

	handler := NewHandler(server.Client())
	node := &models.WorkflowNode{
		ID: "fetch",
		Parameters: map[string]any{
			"url": server.URL + "/users/{{ user.id }}",
		},
	}

	_, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.NoError(t, err)
}

func TestHandler_Execute_MissingURL(t *testing.T) {
	handler := NewHandler(nil)
	node := &models.WorkflowNode{ID: "fetch", Parameters: map[string]any{}}

	result, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, protocol.Retryable(err))
}

func TestHandler_Execute_NetworkFailureIsRetryable(t *testing.T) {
	handler := NewHandler(nil)
	node := &models.WorkflowNode{
		ID:         "fetch",
		Parameters: map[string]any{"url": "http://127.0.0.1:1/unreachable"},
	}

	_, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrHTTPRequestFailed)
	assert.True(t, protocol.Retryable(err))
}

func TestHandler_Execute_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	handler := NewHandler(server.Client())
	node := &models.WorkflowNode{
		ID:         "fetch",
		Parameters: map[string]any{"url": server.URL},
	}

	_, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrHTTPRequestFailed)
}
