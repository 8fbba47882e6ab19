package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
)

// ExecutionLogRepository appends log entries to one JSON-lines file per
// execution under <root>/logs.
type ExecutionLogRepository struct {
	root string
	mu   *sync.Mutex
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(root string, mu *sync.Mutex) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root, mu: mu}
}

func (lr *ExecutionLogRepository) path(executionID string) string {
	return filepath.Join(lr.root, "logs", executionID+".jsonl")
}

// Append adds one log entry to the execution's trail.
func (lr *ExecutionLogRepository) Append(_ context.Context, log *models.ExecutionLog) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(lr.root, "logs"), dirPerm); err != nil {
		return persistence.NewExecutionError("Append", log.ExecutionID, err)
	}

	data, err := json.Marshal(log)
	if err != nil {
		return persistence.NewExecutionError("Append", log.ExecutionID, err)
	}

	file, err := os.OpenFile(lr.path(log.ExecutionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return persistence.NewExecutionError("Append", log.ExecutionID, err)
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return persistence.NewExecutionError("Append", log.ExecutionID, err)
	}

	return nil
}

// ByExecution returns the log trail in append order. An execution without
// logs yields an empty slice.
func (lr *ExecutionLogRepository) ByExecution(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	file, err := os.Open(lr.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ExecutionLog{}, nil
		}

		return nil, persistence.NewExecutionError("ByExecution", executionID, err)
	}

	defer func() {
		_ = file.Close()
	}()

	logs := make([]*models.ExecutionLog, 0)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		entry := &models.ExecutionLog{}
		if err := json.Unmarshal(scanner.Bytes(), entry); err != nil {
			return nil, persistence.NewExecutionError("ByExecution", executionID, fmt.Errorf("corrupt log entry: %w", err))
		}

		logs = append(logs, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, persistence.NewExecutionError("ByExecution", executionID, err)
	}

	return logs, nil
}
