// Package protocol defines the contract between the workflow executor and
// node handlers.
package protocol

import (
	"context"

	"github.com/weftworks/weft/pkg/models"
)

// NodeHandler is the executable behavior bound to one node type. Handlers
// resolve their own node parameters through the expression evaluator before
// use; they never mutate execution status directly.
type NodeHandler interface {
	// Type returns the namespaced node type this handler serves
	// (e.g. "action.http_request").
	Type() string

	// Execute runs the node against the given input items and execution
	// context. Blocking I/O must honor ctx cancellation.
	Execute(ctx context.Context, input []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error)

	// Schema returns the JSON Schema the node's parameter bag is validated
	// against at definition-validation time.
	Schema() map[string]any
}
