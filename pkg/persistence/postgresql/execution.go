package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , status
  , started_at
  , finished_at
  , output
  , error
  , cursor
  , context
  , created_at
`

// Create inserts a new execution row.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	outputJSON, contextJSON, err := marshalExecutionState(execution)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, started_at, finished_at, output, error, cursor, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.Status,
		execution.StartedAt,
		execution.FinishedAt,
		outputJSON,
		nullableString(execution.Error),
		nullableString(execution.Cursor),
		contextJSON,
		execution.CreatedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

// Update overwrites an execution row. The executor calls this before every
// node, so checkpoints survive a crash.
func (r *ExecutionRepository) Update(ctx context.Context, execution *models.Execution) error {
	outputJSON, contextJSON, err := marshalExecutionState(execution)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	query := `
		UPDATE executions
		SET status = $2, finished_at = $3, output = $4, error = $5, cursor = $6, context = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.Status,
		execution.FinishedAt,
		outputJSON,
		nullableString(execution.Error),
		nullableString(execution.Cursor),
		contextJSON,
	)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrExecutionNotFound)
	}

	return nil
}

// ByID returns one execution, or ErrExecutionNotFound.
func (r *ExecutionRepository) ByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ByID", id, err)
	}

	return execution, nil
}

// ByWorkflow returns all executions of a workflow, newest first.
func (r *ExecutionRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE workflow_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewExecutionError("ByWorkflow", workflowID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, persistence.NewExecutionError("ByWorkflow", workflowID, err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewExecutionError("ByWorkflow", workflowID, err)
	}

	return executions, nil
}

func marshalExecutionState(execution *models.Execution) ([]byte, []byte, error) {
	var (
		outputJSON  []byte
		contextJSON []byte
		err         error
	)

	if execution.Output != nil {
		outputJSON, err = json.Marshal(execution.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal output: %w", err)
		}
	}

	if execution.Context != nil {
		contextJSON, err = json.Marshal(execution.Context)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal context: %w", err)
		}
	}

	return outputJSON, contextJSON, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution   models.Execution
		outputJSON  []byte
		contextJSON []byte
		errText     sql.NullString
		cursor      sql.NullString
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&execution.StartedAt,
		&execution.FinishedAt,
		&outputJSON,
		&errText,
		&cursor,
		&contextJSON,
		&execution.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Error = errText.String
	execution.Cursor = cursor.String

	if len(outputJSON) > 0 {
		if err := json.Unmarshal(outputJSON, &execution.Output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}
	}

	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &execution.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}

	return &execution, nil
}
