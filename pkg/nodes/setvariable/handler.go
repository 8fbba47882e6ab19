// Package setvariable provides the utility.set_variable node handler.
package setvariable

import (
	"context"
	"fmt"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
)

// Handler writes a value into the workflow-scoped variable store, making
// it readable by any later node via {{ workflow.<name> }}.
type Handler struct{}

// NewHandler creates the utility.set_variable handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeSetVariable
}

// Execute stores the resolved value under the given name.
func (h *Handler) Execute(_ context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	name, _ := params["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("missing required parameter 'name'")
	}

	value := params["value"]
	execution.Variables[name] = value

	output := map[string]any{
		"variable_set": name,
		"value":        value,
	}

	return &models.NodeExecutionResult{OutputData: models.SingleOutput(output, nil)}, nil
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Variable name",
			},
			"value": map[string]any{
				"description": "Value to store; supports templating",
			},
		},
		"required": []string{"name", "value"},
	}
}
