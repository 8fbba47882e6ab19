package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeCategory(t *testing.T) {
	assert.Equal(t, CategoryTrigger, NodeCategory(NodeTypeTriggerManual))
	assert.Equal(t, CategoryAction, NodeCategory(NodeTypeHTTPRequest))
	assert.Equal(t, CategoryCondition, NodeCategory(NodeTypeConditionIf))
	assert.Equal(t, CategoryUtility, NodeCategory(NodeTypeDelay))
	assert.Empty(t, NodeCategory("plain"))
	assert.Empty(t, NodeCategory(".leading"))
}

func TestWorkflowNode_IsTrigger(t *testing.T) {
	trigger := &WorkflowNode{ID: "t", Type: NodeTypeTriggerWebhook}
	action := &WorkflowNode{ID: "a", Type: NodeTypeEmail}

	assert.True(t, trigger.IsTrigger())
	assert.False(t, action.IsTrigger())
}

func TestWorkflowDefinition_TriggerNodes(t *testing.T) {
	definition := &WorkflowDefinition{
		Nodes: map[string]*WorkflowNode{
			"start": {ID: "start", Type: NodeTypeTriggerManual},
			"fetch": {ID: "fetch", Type: NodeTypeHTTPRequest},
		},
	}

	assert.ElementsMatch(t, []string{"start"}, definition.TriggerNodes())
	assert.Nil(t, definition.Node("missing"))
	assert.NotNil(t, definition.Node("fetch"))
}

func TestWorkflowDefinition_Settings(t *testing.T) {
	definition := &WorkflowDefinition{}
	assert.Zero(t, definition.MaxRetries())
	assert.Zero(t, definition.TimeoutDuration())

	definition.Settings = &WorkflowSettings{MaxRetries: 2, Timeout: 1500}
	assert.Equal(t, 2, definition.MaxRetries())
	assert.Equal(t, 1500*time.Millisecond, definition.TimeoutDuration())
}

func TestNewLinearDefinition(t *testing.T) {
	definition := NewLinearDefinition("Linear", []*WorkflowNode{
		{Type: NodeTypeTriggerManual, Name: "Start"},
		{Type: NodeTypeDelay, Name: "Wait"},
		{Type: NodeTypeEmail, Name: "Notify"},
	})

	require.Len(t, definition.Nodes, 3)
	assert.NotEmpty(t, definition.ID)
	assert.Equal(t, "node-1", definition.Start)
	assert.Equal(t, "node-2", definition.Nodes["node-1"].Next)
	assert.Equal(t, "node-3", definition.Nodes["node-2"].Next)
	assert.Empty(t, definition.Nodes["node-3"].Next)
	assert.Equal(t, DefaultMaxRetries, definition.MaxRetries())
}

func TestExecutionStatus_Terminal(t *testing.T) {
	assert.True(t, ExecutionStatusCompleted.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.False(t, ExecutionStatusPaused.Terminal())
	assert.False(t, ExecutionStatusPending.Terminal())
}

func TestNewExecution(t *testing.T) {
	execution := NewExecution("wf-1")

	assert.NotEmpty(t, execution.ID)
	assert.Equal(t, "wf-1", execution.WorkflowID)
	assert.Equal(t, ExecutionStatusPending, execution.Status)
	assert.False(t, execution.StartedAt.IsZero())
}

func TestExecutionContext_RecordOutput(t *testing.T) {
	ec := NewExecutionContext(nil, "exec-1", "user-1", map[string]any{"env": "test"})

	ec.RecordOutput("fetch", map[string]any{"status": 200})
	ec.RecordOutput("branch", "true")

	assert.Equal(t, "true", ec.PrevOutput())
	assert.Equal(t, map[string]any{"status": 200}, ec.NodeOutputs["fetch"])
}

func TestExecutionContext_SnapshotRestore(t *testing.T) {
	ec := NewExecutionContext(nil, "exec-1", "", map[string]any{"env": "test"})
	ec.RecordOutput("fetch", "payload")

	snapshot := ec.Snapshot()

	// The snapshot is a copy, not a view.
	ec.Variables["env"] = "mutated"
	ec.RecordOutput("other", "later")
	assert.Equal(t, "test", snapshot.Variables["env"])

	restored := NewExecutionContext(nil, "exec-1", "", nil)
	restored.Restore(snapshot)

	assert.Equal(t, "test", restored.Variables["env"])
	assert.Equal(t, "payload", restored.NodeOutputs["fetch"])
	assert.Equal(t, "payload", restored.PrevOutput())

	restored.Restore(nil) // no-op
	assert.Equal(t, "test", restored.Variables["env"])
}

func TestExecutionContext_ExpressionScope(t *testing.T) {
	ec := NewExecutionContext(nil, "exec-1", "user-7", map[string]any{"region": "eu"})
	ec.RecordOutput("fetch", map[string]any{"ok": true})

	scope := ec.ExpressionScope()

	assert.Equal(t, "eu", scope["region"])
	assert.Equal(t, map[string]any{"ok": true}, scope[PrevOutputKey])
	assert.Equal(t, ec.NodeOutputs, scope["$nodes"])
	assert.Equal(t, ec.Variables, scope["workflow"])
	assert.Equal(t, map[string]any{"id": "user-7"}, scope["user"])
}

func TestNodeExecutionResult_Primary(t *testing.T) {
	empty := &NodeExecutionResult{}
	assert.Nil(t, empty.Primary())
	assert.Equal(t, "main", empty.Port())

	result := &NodeExecutionResult{
		OutputData: SingleOutput(map[string]any{"value": 1}, nil),
		OutputPort: "true",
	}

	assert.Equal(t, map[string]any{"value": 1}, result.Primary())
	assert.Equal(t, "true", result.Port())
}
