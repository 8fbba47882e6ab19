package conditional

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/protocol"
)

func testContext() *models.ExecutionContext {
	execution := models.NewExecutionContext(&models.WorkflowDefinition{ID: "wf-1"}, "exec-1", "user-1", nil)
	execution.RecordOutput("fetch", map[string]any{"status": "ok", "count": 3})

	return execution
}

func conditionNode(condition string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID: "check",
		Parameters: map[string]any{
			"condition":   condition,
			"trueBranch":  "on-true",
			"falseBranch": "on-false",
		},
	}
}

func TestHandler_Execute_TrueBranch(t *testing.T) {
	handler := NewHandler()

	assert.Equal(t, "condition.if", handler.Type())

	result, err := handler.Execute(context.Background(), nil, conditionNode(`{{ $prev.status }} === "ok"`), testContext())
	require.NoError(t, err)
	assert.Equal(t, "on-true", result.Next)
	assert.Equal(t, PortTrue, result.OutputPort)

	output, ok := result.OutputData[0][0].JSON.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, output["result"])
}

func TestHandler_Execute_FalseBranch(t *testing.T) {
	handler := NewHandler()

	result, err := handler.Execute(context.Background(), nil, conditionNode(`{{ $prev.status }} === "failed"`), testContext())
	require.NoError(t, err)
	assert.Equal(t, "on-false", result.Next)
	assert.Equal(t, PortFalse, result.OutputPort)
}

func TestHandler_Execute_NotEquals(t *testing.T) {
	handler := NewHandler()

	result, err := handler.Execute(context.Background(), nil, conditionNode(`{{ $prev.count }} !== '0'`), testContext())
	require.NoError(t, err)
	assert.Equal(t, "on-true", result.Next)
}

func TestHandler_Execute_UnsupportedOperator(t *testing.T) {
	handler := NewHandler()

	result, err := handler.Execute(context.Background(), nil, conditionNode(`{{ $prev.count }} > 1`), testContext())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, protocol.ErrConditionEval)
}

func TestHandler_Execute_MissingCondition(t *testing.T) {
	handler := NewHandler()
	node := &models.WorkflowNode{ID: "check", Parameters: map[string]any{}}

	_, err := handler.Execute(context.Background(), nil, node, testContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrConditionEval)
}

func TestEvaluate_QuoteAndSpaceHandling(t *testing.T) {
	cases := []struct {
		condition string
		expected  bool
	}{
		{`ok === "ok"`, true},
		{`'ok' === "ok"`, true},
		{`  ok   ===ok`, true},
		{`3 !== 4`, true},
		{`3 !== 3`, false},
	}

	for _, tc := range cases {
		result, err := evaluate(tc.condition)
		require.NoError(t, err, tc.condition)
		assert.Equal(t, tc.expected, result, tc.condition)
	}
}
