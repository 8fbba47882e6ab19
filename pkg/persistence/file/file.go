// Package file provides file-based persistence for workflows, executions
// and execution logs. Records are stored as JSON documents under the root
// directory; it suits local development and tests.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/weftworks/weft/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	logRepo       *ExecutionLogRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	mu := &sync.Mutex{}

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot, mu),
		executionRepo: NewExecutionRepository(cleanRoot, mu),
		logRepo:       NewExecutionLogRepository(cleanRoot, mu),
	}
}

// Workflows returns the workflow repository.
func (fp *Persistence) Workflows() persistence.WorkflowRepository {
	return fp.workflowRepo
}

// Executions returns the execution repository.
func (fp *Persistence) Executions() persistence.ExecutionRepository {
	return fp.executionRepo
}

// Logs returns the execution log repository.
func (fp *Persistence) Logs() persistence.ExecutionLogRepository {
	return fp.logRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
