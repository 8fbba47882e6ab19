package setvariable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
)

func testContext() *models.ExecutionContext {
	return models.NewExecutionContext(&models.WorkflowDefinition{ID: "wf-1"}, "exec-1", "user-1", nil)
}

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler()

	assert.Equal(t, "utility.set_variable", handler.Type())

	execution := testContext()
	execution.RecordOutput("fetch", map[string]any{"count": 3})

	node := &models.WorkflowNode{
		ID: "remember",
		Parameters: map[string]any{
			"name":  "item_count",
			"value": "{{ $prev.count }}",
		},
	}

	result, err := handler.Execute(context.Background(), nil, node, execution)
	require.NoError(t, err)

	assert.Equal(t, "3", execution.Variables["item_count"])

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "item_count", output["variable_set"])
	assert.Equal(t, "3", output["value"])
}

func TestHandler_Execute_ObjectValue(t *testing.T) {
	handler := NewHandler()
	execution := testContext()

	node := &models.WorkflowNode{
		ID: "remember",
		Parameters: map[string]any{
			"name":  "config",
			"value": map[string]any{"retries": float64(2)},
		},
	}

	_, err := handler.Execute(context.Background(), nil, node, execution)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"retries": float64(2)}, execution.Variables["config"])
}

func TestHandler_Execute_MissingName(t *testing.T) {
	handler := NewHandler()
	node := &models.WorkflowNode{
		ID:         "remember",
		Parameters: map[string]any{"value": "x"},
	}

	result, err := handler.Execute(context.Background(), nil, node, testContext())
	require.Error(t, err)
	assert.Nil(t, result)
}
