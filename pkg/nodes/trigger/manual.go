// Package trigger provides the trigger node handlers. Trigger nodes model
// how a run starts; real webhook ingestion and scheduling are external
// concerns, so these handlers emit the firing event a run begins with.
package trigger

import (
	"context"
	"time"

	"github.com/weftworks/weft/pkg/models"
)

// ManualTrigger emits a triggered marker with the current timestamp. It
// always succeeds.
type ManualTrigger struct{}

// NewManualTrigger creates the trigger.manual handler.
func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{}
}

// Type returns the node type.
func (h *ManualTrigger) Type() string {
	return models.NodeTypeTriggerManual
}

// Execute emits the manual firing event.
func (h *ManualTrigger) Execute(_ context.Context, _ []models.NodeExecutionData, _ *models.WorkflowNode, _ *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	output := map[string]any{
		"triggered": true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema; manual triggers take none.
func (h *ManualTrigger) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
