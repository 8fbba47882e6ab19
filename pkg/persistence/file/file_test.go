package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
)

func testWorkflow(name string) *models.Workflow {
	return &models.Workflow{
		Name:   name,
		Status: models.WorkflowStatusActive,
		Active: true,
		Definition: &models.WorkflowDefinition{
			Name:  name,
			Start: "start",
			Nodes: map[string]*models.WorkflowNode{
				"start": {ID: "start", Type: models.NodeTypeTriggerManual, Name: "Start"},
			},
		},
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(context.Background()))
	assert.NoError(t, p.Close(context.Background()))

	missing := NewPersistence("/nonexistent/weft-data")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestWorkflowRepository_SaveAndByID(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	workflow := testWorkflow("Order Sync")
	require.NoError(t, p.Workflows().Save(ctx, workflow))
	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := p.Workflows().ByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order Sync", loaded.Name)
	assert.Equal(t, "start", loaded.Definition.Start)
}

func TestWorkflowRepository_ByID_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.Workflows().ByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_All_SkipsDeleted(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	first := testWorkflow("First")
	second := testWorkflow("Second")
	require.NoError(t, p.Workflows().Save(ctx, first))
	require.NoError(t, p.Workflows().Save(ctx, second))

	require.NoError(t, p.Workflows().Delete(ctx, first.ID))

	workflows, err := p.Workflows().All(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "Second", workflows[0].Name)

	_, err = p.Workflows().ByID(ctx, first.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestExecutionRepository_CreateUpdateByID(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	execution := models.NewExecution("wf-1")
	require.NoError(t, p.Executions().Create(ctx, execution))

	execution.Status = models.ExecutionStatusRunning
	execution.Cursor = "node-2"
	execution.Context = &models.ExecutionSnapshot{
		Variables:   map[string]any{"count": float64(3)},
		NodeOutputs: map[string]any{"$prev": map[string]any{"ok": true}},
	}
	require.NoError(t, p.Executions().Update(ctx, execution))

	loaded, err := p.Executions().ByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
	assert.Equal(t, "node-2", loaded.Cursor)
	require.NotNil(t, loaded.Context)
	assert.Equal(t, float64(3), loaded.Context.Variables["count"])
}

func TestExecutionRepository_Update_Missing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	err := p.Executions().Update(context.Background(), models.NewExecution("wf-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestExecutionRepository_ByWorkflow(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	mine := models.NewExecution("wf-1")
	other := models.NewExecution("wf-2")
	require.NoError(t, p.Executions().Create(ctx, mine))
	require.NoError(t, p.Executions().Create(ctx, other))

	executions, err := p.Executions().ByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, mine.ID, executions[0].ID)
}

func TestExecutionLogRepository_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	for _, message := range []string{"execution started", "node fetch completed"} {
		err := p.Logs().Append(ctx, &models.ExecutionLog{
			ExecutionID: "exec-1",
			NodeID:      models.SystemNodeID,
			Level:       models.LogLevelInfo,
			Message:     message,
			Timestamp:   time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	logs, err := p.Logs().ByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "execution started", logs[0].Message)
	assert.Equal(t, "node fetch completed", logs[1].Message)
}

func TestExecutionLogRepository_EmptyTrail(t *testing.T) {
	p := NewPersistence(t.TempDir())

	logs, err := p.Logs().ByExecution(context.Background(), "exec-without-logs")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
