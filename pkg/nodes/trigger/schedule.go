package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
)

// ScheduleTrigger emits a simulated firing event. Real scheduling lives
// outside the engine; an optional cron parameter is parsed here so broken
// schedules fail the run instead of silently never firing.
type ScheduleTrigger struct{}

// NewScheduleTrigger creates the trigger.schedule handler.
func NewScheduleTrigger() *ScheduleTrigger {
	return &ScheduleTrigger{}
}

// Type returns the node type.
func (h *ScheduleTrigger) Type() string {
	return models.NodeTypeTriggerSchedule
}

// Execute emits the simulated schedule firing event.
func (h *ScheduleTrigger) Execute(_ context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	output := map[string]any{
		"scheduled": true,
		"interval":  params["interval"],
		"time":      params["time"],
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if spec, ok := params["cron"].(string); ok && spec != "" {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
		}

		output["next_run"] = schedule.Next(time.Now().UTC()).Format(time.RFC3339)
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema.
func (h *ScheduleTrigger) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"interval": map[string]any{
				"type":        "string",
				"description": "Human-readable firing interval (e.g. hourly, daily)",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Time of day the schedule fires at",
			},
			"cron": map[string]any{
				"type":        "string",
				"description": "Optional cron expression; validated, used to report next_run",
			},
		},
		"required": []string{"interval", "time"},
	}
}
