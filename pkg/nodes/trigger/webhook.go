package trigger

import (
	"context"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
)

// WebhookTrigger echoes the received payload together with the declared
// webhook configuration. Actual HTTP ingestion happens outside the engine.
type WebhookTrigger struct{}

// NewWebhookTrigger creates the trigger.webhook handler.
func NewWebhookTrigger() *WebhookTrigger {
	return &WebhookTrigger{}
}

// Type returns the node type.
func (h *WebhookTrigger) Type() string {
	return models.NodeTypeTriggerWebhook
}

// Execute emits the webhook config plus whatever payload arrived as input.
func (h *WebhookTrigger) Execute(_ context.Context, input []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	var data any = map[string]any{}
	if len(input) > 0 && input[0].JSON != nil {
		data = input[0].JSON
	}

	output := map[string]any{
		"webhook": params,
		"data":    data,
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema.
func (h *WebhookTrigger) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Webhook path the workflow is reachable at",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "Expected HTTP method",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
			},
		},
		"required": []string{"path", "method"},
	}
}
