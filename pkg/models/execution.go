package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus defines the lifecycle states of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusPaused    ExecutionStatus = "paused"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// ExecutionSnapshot is the checkpoint persisted before each node runs.
// Node outputs are included alongside variables so a paused execution can
// resume with its full expression scope.
type ExecutionSnapshot struct {
	Variables   map[string]any `json:"variables,omitempty"`
	NodeOutputs map[string]any `json:"node_outputs,omitempty"`
}

// Execution is the durable record of one workflow run.
type Execution struct {
	ID         string             `json:"id"`
	WorkflowID string             `json:"workflow_id"`
	Status     ExecutionStatus    `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Output     map[string]any     `json:"output,omitempty"`
	Error      string             `json:"error,omitempty"`
	Cursor     string             `json:"cursor,omitempty"` // last-attempted node id
	Context    *ExecutionSnapshot `json:"context,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewExecution creates a pending execution record for a workflow.
func NewExecution(workflowID string) *Execution {
	now := time.Now().UTC()

	return &Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Status:     ExecutionStatusPending,
		StartedAt:  now,
		CreatedAt:  now,
	}
}

// LogLevel is the severity of an execution log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// SystemNodeID is the sentinel node id for engine-level log entries.
const SystemNodeID = "system"

// ExecutionLog is one append-only log entry for an execution.
type ExecutionLog struct {
	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id"`
	Level       LogLevel  `json:"level"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}
