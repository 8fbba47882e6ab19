package gptprompt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/credentials"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

func testContext(input map[string]any) *models.ExecutionContext {
	return models.NewExecutionContext(&models.WorkflowDefinition{ID: "wf-1"}, "exec-1", "user-1", input)
}

func completionsServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   req["model"],
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     12,
				"completion_tokens": 5,
				"total_tokens":      17,
			},
		})
	}))
}

func TestHandler_Execute(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	server := completionsServer(t, "All clear.")
	defer server.Close()

	handler := NewHandler(credentials.NewEnvResolver(), server.URL+"/v1")

	assert.Equal(t, "action.gpt_prompt", handler.Type())

	node := &models.WorkflowNode{
		ID: "analyze",
		Parameters: map[string]any{
			"prompt": "Summarize: {{ $prev.status }}",
		},
	}

	execution := testContext(nil)
	execution.RecordOutput("fetch", map[string]any{"status": "ok"})

	result, err := handler.Execute(context.Background(), nil, node, execution)
	require.NoError(t, err)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "All clear.", output["result"])

	usage, ok := output["usage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 17, usage["total_tokens"])
	assert.Equal(t, defaultModel, result.Metadata["model"])
}

func TestHandler_Execute_MissingPrompt(t *testing.T) {
	handler := NewHandler(credentials.NewEnvResolver(), "")
	node := &models.WorkflowNode{ID: "analyze", Parameters: map[string]any{}}

	result, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, protocol.Retryable(err))
}

func TestHandler_Execute_MissingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	handler := NewHandler(credentials.NewEnvResolver(), "")
	node := &models.WorkflowNode{
		ID:         "analyze",
		Parameters: map[string]any{"prompt": "hello"},
	}

	_, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrCredentialMissing)
	assert.False(t, protocol.Retryable(err))
}

func TestHandler_Execute_UpstreamFailureIsRetryable(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	handler := NewHandler(credentials.NewEnvResolver(), server.URL+"/v1")
	node := &models.WorkflowNode{
		ID:         "analyze",
		Parameters: map[string]any{"prompt": "hello"},
	}

	_, err := handler.Execute(context.Background(), nil, node, testContext(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrUpstream)
	assert.True(t, protocol.Retryable(err))
}
