package models

// PrevOutputKey is the reserved node-outputs key holding the most recently
// produced output, regardless of which node produced it.
const PrevOutputKey = "$prev"

// ExecutionContext is the ephemeral per-run state handed to node handlers.
// It is created at execution start and discarded at execution end; only
// status, output and checkpoint snapshots are persisted.
type ExecutionContext struct {
	Workflow    *WorkflowDefinition `json:"-"`
	ExecutionID string              `json:"execution_id"`
	UserID      string              `json:"user_id,omitempty"`
	Variables   map[string]any      `json:"variables"`
	NodeOutputs map[string]any      `json:"node_outputs"`
}

// NewExecutionContext builds the run-time context for one execution. The
// input payload seeds the workflow-scoped variables.
func NewExecutionContext(workflow *WorkflowDefinition, executionID, userID string, input map[string]any) *ExecutionContext {
	variables := make(map[string]any, len(input))
	for k, v := range input {
		variables[k] = v
	}

	return &ExecutionContext{
		Workflow:    workflow,
		ExecutionID: executionID,
		UserID:      userID,
		Variables:   variables,
		NodeOutputs: make(map[string]any),
	}
}

// PrevOutput returns the most recent node output, or nil.
func (ec *ExecutionContext) PrevOutput() any {
	return ec.NodeOutputs[PrevOutputKey]
}

// RecordOutput stores a node's primary output under both the node id and
// the reserved $prev key.
func (ec *ExecutionContext) RecordOutput(nodeID string, output any) {
	ec.NodeOutputs[nodeID] = output
	ec.NodeOutputs[PrevOutputKey] = output
}

// Snapshot captures the checkpoint state persisted before each node.
func (ec *ExecutionContext) Snapshot() *ExecutionSnapshot {
	variables := make(map[string]any, len(ec.Variables))
	for k, v := range ec.Variables {
		variables[k] = v
	}

	outputs := make(map[string]any, len(ec.NodeOutputs))
	for k, v := range ec.NodeOutputs {
		outputs[k] = v
	}

	return &ExecutionSnapshot{Variables: variables, NodeOutputs: outputs}
}

// Restore rehydrates the context from a persisted checkpoint.
func (ec *ExecutionContext) Restore(snapshot *ExecutionSnapshot) {
	if snapshot == nil {
		return
	}

	for k, v := range snapshot.Variables {
		ec.Variables[k] = v
	}

	for k, v := range snapshot.NodeOutputs {
		ec.NodeOutputs[k] = v
	}
}

// ExpressionScope assembles the namespace mapping templates are resolved
// against: $prev, $nodes (named node outputs), user, workflow (variables),
// and the variables spread at top level for plain dotted paths.
func (ec *ExecutionContext) ExpressionScope() map[string]any {
	scope := make(map[string]any, len(ec.Variables)+4)

	for k, v := range ec.Variables {
		scope[k] = v
	}

	scope[PrevOutputKey] = ec.NodeOutputs[PrevOutputKey]
	scope["$nodes"] = ec.NodeOutputs
	scope["workflow"] = ec.Variables
	scope["user"] = map[string]any{"id": ec.UserID}

	return scope
}
