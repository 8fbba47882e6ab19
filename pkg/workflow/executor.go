package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftworks/weft/pkg/eventbus"
	"github.com/weftworks/weft/pkg/events"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/otelhelper"
	"github.com/weftworks/weft/pkg/persistence"
	"github.com/weftworks/weft/pkg/protocol"
	"github.com/weftworks/weft/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// retryPause is the fixed wait between attempts of a retryable node.
const retryPause = 500 * time.Millisecond

// Executor runs workflow definitions node by node. Before each node it
// persists a checkpoint (cursor plus context snapshot) so a crashed or
// paused run can be resumed from durable state.
type Executor struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewExecutor creates an executor over the given storage and registry.
func NewExecutor(p persistence.Persistence, r *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		persistence: p,
		registry:    r,
		tracer:      noop.NewTracerProvider().Tracer("weft"),
		logger:      logger,
	}
}

// WithEventBus makes the executor broadcast lifecycle events. Publishing
// is best-effort; bus failures never fail the run.
func (e *Executor) WithEventBus(bus eventbus.EventPublisher) *Executor {
	e.eventBus = bus

	return e
}

// WithTracer enables tracing of executions and node spans.
func (e *Executor) WithTracer(tracer trace.Tracer) *Executor {
	e.tracer = tracer

	return e
}

// ExecuteWorkflow runs a stored workflow from its start node. The returned
// execution record carries the terminal (or paused) state; node failures
// are reported in the record, not as an error.
func (e *Executor) ExecuteWorkflow(ctx context.Context, workflowID, userID string, input map[string]any) (*models.Execution, error) {
	workflow, err := e.persistence.Workflows().ByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	execution := models.NewExecution(workflowID)
	if err := e.persistence.Executions().Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	return e.ExecuteExisting(ctx, workflow, execution, userID, input)
}

// ExecuteExisting runs a loaded workflow against a pre-created execution
// record. Asynchronous dispatch uses this to hand the pending record to
// the caller before the run starts.
func (e *Executor) ExecuteExisting(ctx context.Context, workflow *models.Workflow, execution *models.Execution, userID string, input map[string]any) (*models.Execution, error) {
	start, err := StartNode(workflow.Definition)
	if err != nil {
		return nil, err
	}

	execCtx := models.NewExecutionContext(workflow.Definition, execution.ID, userID, input)

	e.publish(ctx, workflow.ID, events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID, execution.ID),
		Input:     input,
	})

	return e.run(ctx, workflow.Definition, execution, execCtx, start)
}

// Resume continues a paused execution from its checkpoint cursor.
func (e *Executor) Resume(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := e.persistence.Executions().ByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if execution.Status != models.ExecutionStatusPaused {
		return nil, fmt.Errorf("execution %s is %s, only paused executions can resume", executionID, execution.Status)
	}

	workflow, err := e.persistence.Workflows().ByID(ctx, execution.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", execution.WorkflowID, err)
	}

	execCtx := models.NewExecutionContext(workflow.Definition, execution.ID, "", nil)
	execCtx.Restore(execution.Context)

	e.publish(ctx, execution.WorkflowID, events.ExecutionResumed{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumedEvent, execution.WorkflowID, execution.ID),
		NodeID:    execution.Cursor,
	})

	return e.run(ctx, workflow.Definition, execution, execCtx, execution.Cursor)
}

// run drives the node loop from the given node until the graph
// terminates, a node pauses, a node fails or the time budget runs out.
func (e *Executor) run(ctx context.Context, definition *models.WorkflowDefinition, execution *models.Execution, execCtx *models.ExecutionContext, startNode string) (*models.Execution, error) {
	logger := e.logger.With("workflow_id", definition.ID, "execution_id", execution.ID)
	startedAt := time.Now()

	if budget := definition.TimeoutDuration(); budget > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, definition.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	execution.Status = models.ExecutionStatusRunning
	currentID := startNode

	e.appendLog(ctx, execution.ID, models.SystemNodeID, models.LogLevelInfo,
		fmt.Sprintf("execution started at node %s", currentID))

	for currentID != "" {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, definition, execution, currentID, contextError(err), time.Since(startedAt)), nil
		}

		node := definition.Node(currentID)
		if node == nil {
			err := fmt.Errorf("%w: cursor -> %s", ErrDanglingConnection, currentID)

			return e.fail(ctx, definition, execution, currentID, err, time.Since(startedAt)), nil
		}

		// Checkpoint before the node runs: a crash replays this node.
		execution.Cursor = currentID
		execution.Context = execCtx.Snapshot()

		if err := e.persistence.Executions().Update(ctx, execution); err != nil {
			return nil, fmt.Errorf("failed to checkpoint execution %s: %w", execution.ID, err)
		}

		e.appendLog(ctx, execution.ID, currentID, models.LogLevelInfo,
			fmt.Sprintf("executing node %s (%s)", currentID, node.Type))

		result, err := e.executeNode(ctx, node, execCtx, definition.MaxRetries())
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				err = contextError(err)
			}

			return e.fail(ctx, definition, execution, currentID, err, time.Since(startedAt)), nil
		}

		if primary := result.Primary(); primary != nil {
			execCtx.RecordOutput(currentID, primary)
		}

		next := NextNode(definition, node, result)

		e.appendLog(ctx, execution.ID, currentID, models.LogLevelInfo,
			fmt.Sprintf("node %s (%s) completed", currentID, node.Type))
		e.publish(ctx, definition.ID, events.NodeCompleted{
			BaseEvent: events.NewBaseEvent(events.NodeCompletedEvent, definition.ID, execution.ID),
			NodeID:    currentID,
			NodeType:  node.Type,
			Next:      next,
		})

		if result.Paused {
			return e.pause(ctx, definition, execution, execCtx, currentID, next), nil
		}

		logger.Debug("node completed", "node_id", currentID, "next", next)
		currentID = next
	}

	return e.complete(ctx, definition, execution, execCtx, time.Since(startedAt)), nil
}

// executeNode runs one node, retrying retryable failures up to the
// workflow's per-node cap.
func (e *Executor) executeNode(ctx context.Context, node *models.WorkflowNode, execCtx *models.ExecutionContext, maxRetries int) (*models.NodeExecutionResult, error) {
	handler, err := e.registry.Handler(node.Type)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	input := []models.NodeExecutionData{{JSON: prevOrEmpty(execCtx)}}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			e.appendLog(ctx, execCtx.ExecutionID, node.ID, models.LogLevelWarn,
				fmt.Sprintf("retrying node %s (attempt %d of %d): %v", node.ID, attempt+1, maxRetries+1, lastErr))
			e.publish(ctx, execCtx.Workflow.ID, events.NodeFailed{
				BaseEvent: events.NewBaseEvent(events.NodeFailedEvent, execCtx.Workflow.ID, execCtx.ExecutionID),
				NodeID:    node.ID,
				NodeType:  node.Type,
				Error:     lastErr.Error(),
				Attempt:   attempt,
			})

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryPause):
			}
		}

		result, err := handler.Execute(ctx, input, node, execCtx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !protocol.Retryable(err) {
			break
		}
	}

	otelhelper.SetError(span, lastErr)

	return nil, lastErr
}

func (e *Executor) complete(ctx context.Context, definition *models.WorkflowDefinition, execution *models.Execution, execCtx *models.ExecutionContext, elapsed time.Duration) *models.Execution {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.FinishedAt = &now
	execution.Output = execCtx.NodeOutputs
	execution.Cursor = ""
	execution.Context = execCtx.Snapshot()

	e.persist(ctx, execution)
	e.appendLog(ctx, execution.ID, models.SystemNodeID, models.LogLevelInfo, "execution completed")
	e.publish(ctx, definition.ID, events.ExecutionCompleted{
		BaseEvent: events.NewBaseEvent(events.ExecutionCompletedEvent, definition.ID, execution.ID),
		Output:    execution.Output,
		Duration:  elapsed,
	})

	return execution
}

// fail records a terminal failure. The node error message is stored
// verbatim so callers can match on handler sentinel text.
func (e *Executor) fail(ctx context.Context, definition *models.WorkflowDefinition, execution *models.Execution, nodeID string, nodeErr error, elapsed time.Duration) *models.Execution {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.FinishedAt = &now
	execution.Error = nodeErr.Error()

	e.persist(ctx, execution)
	e.appendLog(ctx, execution.ID, nodeID, models.LogLevelError,
		fmt.Sprintf("execution failed at node %s: %v", nodeID, nodeErr))

	if errors.Is(nodeErr, ErrTimeout) {
		e.publish(ctx, definition.ID, events.ExecutionTimeout{
			BaseEvent: events.NewBaseEvent(events.ExecutionTimeoutEvent, definition.ID, execution.ID),
			NodeID:    nodeID,
		})
	} else {
		e.publish(ctx, definition.ID, events.ExecutionFailed{
			BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, definition.ID, execution.ID),
			NodeID:    nodeID,
			Error:     nodeErr.Error(),
			Duration:  elapsed,
		})
	}

	return execution
}

// pause parks the execution with the cursor pointing at the node Resume
// continues from.
func (e *Executor) pause(ctx context.Context, definition *models.WorkflowDefinition, execution *models.Execution, execCtx *models.ExecutionContext, nodeID, next string) *models.Execution {
	execution.Status = models.ExecutionStatusPaused
	execution.Cursor = next
	execution.Context = execCtx.Snapshot()

	// A paused node with no successor resumes at itself.
	if execution.Cursor == "" {
		execution.Cursor = nodeID
	}

	e.persist(ctx, execution)
	e.appendLog(ctx, execution.ID, nodeID, models.LogLevelInfo,
		fmt.Sprintf("execution paused at node %s", nodeID))
	e.publish(ctx, definition.ID, events.ExecutionPaused{
		BaseEvent: events.NewBaseEvent(events.ExecutionPausedEvent, definition.ID, execution.ID),
		NodeID:    nodeID,
	})

	return execution
}

func (e *Executor) persist(ctx context.Context, execution *models.Execution) {
	// Terminal writes use a detached context so a timed-out run still
	// lands in storage.
	if err := e.persistence.Executions().Update(context.WithoutCancel(ctx), execution); err != nil {
		e.logger.Error("failed to persist execution state",
			"execution_id", execution.ID, "status", execution.Status, "error", err)
	}
}

func (e *Executor) appendLog(ctx context.Context, executionID, nodeID string, level models.LogLevel, message string) {
	err := e.persistence.Logs().Append(context.WithoutCancel(ctx), &models.ExecutionLog{
		ExecutionID: executionID,
		NodeID:      nodeID,
		Level:       level,
		Message:     message,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("failed to append execution log", "execution_id", executionID, "error", err)
	}
}

func (e *Executor) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(context.WithoutCancel(ctx), workflowID, event); err != nil {
		e.logger.Warn("failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// contextError maps a context failure onto the matching sentinel: a blown
// deadline is a timeout, a caller cancellation is not.
func contextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}

	return ErrTimeout
}

func prevOrEmpty(execCtx *models.ExecutionContext) any {
	if prev := execCtx.PrevOutput(); prev != nil {
		return prev
	}

	return map[string]any{}
}
