// Package conditional provides the condition.if node handler: a restricted
// equality comparison over templated operands that routes execution to a
// true or false branch. The grammar is deliberately limited to === and !==
// so user-supplied strings are never evaluated as code.
package conditional

import (
	"context"
	"fmt"
	"strings"

	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

// Output port labels used for connections-table lookups.
const (
	PortTrue  = "true"
	PortFalse = "false"
)

// Handler evaluates the condition and returns the matching branch id as
// the handler-directed next node.
type Handler struct{}

// NewHandler creates the condition.if handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Type returns the node type.
func (h *Handler) Type() string {
	return models.NodeTypeConditionIf
}

// Execute templates the parameters, evaluates the comparison and picks the
// branch. Conditions outside the ===/!== grammar are ErrConditionEval.
func (h *Handler) Execute(_ context.Context, _ []models.NodeExecutionData, node *models.WorkflowNode, execution *models.ExecutionContext) (*models.NodeExecutionResult, error) {
	params := expression.ResolveParameters(execution.ExpressionScope(), node.Parameters)

	condition, _ := params["condition"].(string)
	if condition == "" {
		return nil, fmt.Errorf("%w: missing condition", protocol.ErrConditionEval)
	}

	result, err := evaluate(condition)
	if err != nil {
		return nil, err
	}

	next, _ := params["trueBranch"].(string)
	port := PortTrue

	if !result {
		next, _ = params["falseBranch"].(string)
		port = PortFalse
	}

	output := map[string]any{
		"condition": condition,
		"result":    result,
	}

	return &models.NodeExecutionResult{
		OutputData: models.SingleOutput(output, nil),
		Next:       next,
		OutputPort: port,
	}, nil
}

// evaluate compares the two operands of an ===/!== expression as strings,
// after trimming whitespace and surrounding quotes.
func evaluate(condition string) (bool, error) {
	if left, right, ok := strings.Cut(condition, "==="); ok {
		return operand(left) == operand(right), nil
	}

	if left, right, ok := strings.Cut(condition, "!=="); ok {
		return operand(left) != operand(right), nil
	}

	return false, fmt.Errorf("%w: unsupported condition %q (only === and !== are allowed)", protocol.ErrConditionEval, condition)
}

func operand(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}

// Schema returns the parameter schema.
func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{
				"type":        "string",
				"description": `Comparison like {{ $prev.status }} === "ok"`,
			},
			"trueBranch": map[string]any{
				"type":        "string",
				"description": "Node id to continue at when the condition holds",
			},
			"falseBranch": map[string]any{
				"type":        "string",
				"description": "Node id to continue at when the condition fails",
			},
		},
		"required": []string{"condition"},
	}
}
