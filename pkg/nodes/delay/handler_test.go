package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
)

func testContext() *models.ExecutionContext {
	return models.NewExecutionContext(&models.WorkflowDefinition{ID: "wf-1"}, "exec-1", "user-1", nil)
}

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler()

	assert.Equal(t, "utility.delay", handler.Type())

	node := &models.WorkflowNode{
		ID:         "pause",
		Parameters: map[string]any{"duration": float64(10)},
	}

	start := time.Now()

	result, err := handler.Execute(context.Background(), nil, node, testContext())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 10, output["delayed"])
	assert.NotEmpty(t, output["timestamp"])
}

func TestHandler_Execute_ContextCancelled(t *testing.T) {
	handler := NewHandler()
	node := &models.WorkflowNode{
		ID:         "pause",
		Parameters: map[string]any{"duration": float64(5000)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()

	result, err := handler.Execute(ctx, nil, node, testContext())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandler_Execute_DefaultDuration(t *testing.T) {
	handler := NewHandler()
	node := &models.WorkflowNode{ID: "pause", Parameters: map[string]any{}}

	result, err := handler.Execute(context.Background(), nil, node, testContext())
	require.NoError(t, err)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, defaultDurationMS, output["delayed"])
}
