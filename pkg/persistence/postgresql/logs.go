package postgresql

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
)

// ExecutionLogRepository handles the append-only execution log trail.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

// Append adds one log entry to the execution's trail.
func (r *ExecutionLogRepository) Append(ctx context.Context, log *models.ExecutionLog) error {
	query := `
		INSERT INTO execution_logs (execution_id, node_id, level, message, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ExecutionID,
		log.NodeID,
		log.Level,
		log.Message,
		log.Timestamp,
	)
	if err != nil {
		return persistence.NewExecutionError("Append", log.ExecutionID, err)
	}

	return nil
}

// ByExecution returns the log trail in append order.
func (r *ExecutionLogRepository) ByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT execution_id, node_id, level, message, timestamp
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("ByExecution", executionID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		entry := &models.ExecutionLog{}

		err := rows.Scan(&entry.ExecutionID, &entry.NodeID, &entry.Level, &entry.Message, &entry.Timestamp)
		if err != nil {
			return nil, persistence.NewExecutionError("ByExecution", executionID, err)
		}

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewExecutionError("ByExecution", executionID, err)
	}

	return logs, nil
}
