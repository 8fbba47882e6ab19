package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
	"github.com/weftworks/weft/pkg/workflow"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution orchestrates workflow runs over the executor and exposes
// execution history.
type Execution struct {
	persistence persistence.Persistence
	executor    *workflow.Executor
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(p persistence.Persistence, executor *workflow.Executor, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: p,
		executor:    executor,
		logger:      logger,
	}
}

// Execute runs a workflow synchronously and returns its terminal (or
// paused) record.
func (e *Execution) Execute(ctx context.Context, workflowID, userID string, input map[string]any) (*models.Execution, error) {
	wf, err := e.persistence.Workflows().ByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !wf.Active {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowInactive, workflowID)
	}

	return e.executor.ExecuteWorkflow(ctx, workflowID, userID, input)
}

// ExecuteAsync starts a workflow run in the background and returns the
// pending record; callers watch it transition through the execution
// endpoints.
func (e *Execution) ExecuteAsync(ctx context.Context, workflowID, userID string, input map[string]any) (*models.Execution, error) {
	wf, err := e.persistence.Workflows().ByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !wf.Active {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowInactive, workflowID)
	}

	execution := models.NewExecution(workflowID)
	if err := e.persistence.Executions().Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	// Copy before the run starts mutating the record.
	pending := *execution

	go func() {
		// Detach from the request context; the run outlives the request.
		runCtx := context.WithoutCancel(ctx)

		if _, err := e.executor.ExecuteExisting(runCtx, wf, execution, userID, input); err != nil {
			e.logger.Error("background execution failed",
				"workflow_id", workflowID, "execution_id", execution.ID, "error", err)
		}
	}()

	return &pending, nil
}

// Resume continues a paused execution.
func (e *Execution) Resume(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := e.persistence.Executions().ByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if execution.Status != models.ExecutionStatusPaused {
		return nil, fmt.Errorf("%w: %s is %s", ErrExecutionNotResumable, executionID, execution.Status)
	}

	return e.executor.Resume(ctx, executionID)
}

// FetchByID returns one execution record.
func (e *Execution) FetchByID(ctx context.Context, id string) (*models.Execution, error) {
	return e.persistence.Executions().ByID(ctx, id)
}

// ListByWorkflow returns a workflow's executions, newest first.
func (e *Execution) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	return e.persistence.Executions().ByWorkflow(ctx, workflowID)
}

// Logs returns an execution's log trail in append order.
func (e *Execution) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	if _, err := e.persistence.Executions().ByID(ctx, executionID); err != nil {
		return nil, err
	}

	return e.persistence.Logs().ByExecution(ctx, executionID)
}
