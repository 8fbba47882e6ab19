package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
)

// ExecutionRepository stores one JSON document per execution under
// <root>/executions.
type ExecutionRepository struct {
	root string
	mu   *sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string, mu *sync.Mutex) *ExecutionRepository {
	return &ExecutionRepository{root: root, mu: mu}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

// Create writes a new execution record.
func (er *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.write(execution)
}

// Update overwrites an existing execution record. The executor calls this
// before every node, so checkpoints survive a crash.
func (er *ExecutionRepository) Update(_ context.Context, execution *models.Execution) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if _, err := os.Stat(er.path(execution.ID)); os.IsNotExist(err) {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrExecutionNotFound)
	}

	return er.write(execution)
}

// ByID returns one execution, or ErrExecutionNotFound.
func (er *ExecutionRepository) ByID(_ context.Context, id string) (*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.read(id)
}

// ByWorkflow returns all executions of a workflow, newest first.
func (er *ExecutionRepository) ByWorkflow(_ context.Context, workflowID string) ([]*models.Execution, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	entries, err := fs.Glob(os.DirFS(er.dir()), "*.json")
	if err != nil {
		return nil, persistence.NewExecutionError("ByWorkflow", workflowID, err)
	}

	executions := make([]*models.Execution, 0)

	for _, entry := range entries {
		execution, err := er.read(strings.TrimSuffix(entry, ".json"))
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	return executions, nil
}

func (er *ExecutionRepository) read(id string) (*models.Execution, error) {
	data, err := os.ReadFile(er.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("read", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("read", id, err)
	}

	execution := &models.Execution{}
	if err := json.Unmarshal(data, execution); err != nil {
		return nil, persistence.NewExecutionError("read", id, fmt.Errorf("corrupt execution document: %w", err))
	}

	return execution, nil
}

func (er *ExecutionRepository) write(execution *models.Execution) error {
	if err := os.MkdirAll(er.dir(), dirPerm); err != nil {
		return persistence.NewExecutionError("write", execution.ID, err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return persistence.NewExecutionError("write", execution.ID, err)
	}

	if err := os.WriteFile(er.path(execution.ID), data, 0o600); err != nil {
		return persistence.NewExecutionError("write", execution.ID, err)
	}

	return nil
}
