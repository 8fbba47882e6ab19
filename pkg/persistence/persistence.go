// Package persistence provides the storage abstraction for workflows,
// executions and execution logs.
package persistence

import (
	"context"

	"github.com/weftworks/weft/pkg/models"
)

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	All(ctx context.Context) ([]*models.Workflow, error)
	ByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records, including the checkpoint
// state written before each node runs.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) error
	Update(ctx context.Context, execution *models.Execution) error
	ByID(ctx context.Context, id string) (*models.Execution, error)
	ByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}

// ExecutionLogRepository stores the append-only per-execution log trail.
type ExecutionLogRepository interface {
	Append(ctx context.Context, log *models.ExecutionLog) error
	ByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)
}

// Persistence bundles the repositories behind one backend connection.
type Persistence interface {
	Workflows() WorkflowRepository
	Executions() ExecutionRepository
	Logs() ExecutionLogRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
