package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(ExecutionStartedEvent, "wf-1", "exec-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, ExecutionStartedEvent, base.Type)
	assert.Equal(t, "wf-1", base.WorkflowID)
	assert.Equal(t, "exec-1", base.ExecutionID)
	assert.False(t, base.Timestamp.IsZero())
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, ExecutionStartedEvent, ExecutionStarted{}.GetType())
	assert.Equal(t, ExecutionCompletedEvent, ExecutionCompleted{}.GetType())
	assert.Equal(t, ExecutionFailedEvent, ExecutionFailed{}.GetType())
	assert.Equal(t, ExecutionPausedEvent, ExecutionPaused{}.GetType())
	assert.Equal(t, ExecutionResumedEvent, ExecutionResumed{}.GetType())
	assert.Equal(t, ExecutionTimeoutEvent, ExecutionTimeout{}.GetType())
	assert.Equal(t, NodeCompletedEvent, NodeCompleted{}.GetType())
	assert.Equal(t, NodeFailedEvent, NodeFailed{}.GetType())
}

func TestNodeCompleted_JSONRoundTrip(t *testing.T) {
	event := NodeCompleted{
		BaseEvent: NewBaseEvent(NodeCompletedEvent, "wf-1", "exec-1"),
		NodeID:    "fetch",
		NodeType:  "action.http_request",
		Next:      "check",
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded NodeCompleted

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, event.NodeID, decoded.NodeID)
	assert.Equal(t, event.Next, decoded.Next)
	assert.Equal(t, event.ExecutionID, decoded.ExecutionID)
}
