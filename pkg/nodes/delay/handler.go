// Package delay provides the utility.delay node handler.
package delay

import (
	"context"
	"time"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
)

const defaultDurationMS = 1000

// Handler suspends the execution for the configured duration. The sleep
// honors context cancellation so a workflow timeout interrupts it.
type Handler struct{}

// NewHandler creates the utility.delay handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeDelay
}

// Execute sleeps, then returns a confirmation record.
func (h *Handler) Execute(ctx context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	duration := defaultDurationMS
	if ms, ok := params["duration"].(float64); ok && ms >= 0 {
		duration = int(ms)
	}

	timer := time.NewTimer(time.Duration(duration) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	output := map[string]any{
		"delayed":   duration,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "number",
				"description": "Delay in milliseconds",
				"default":     defaultDurationMS,
				"minimum":     0,
			},
		},
		"required": []string{"duration"},
	}
}
