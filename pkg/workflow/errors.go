package workflow

import "errors"

// Validation and execution error sentinels.
var (
	// ErrNoStartNode indicates the definition has neither an explicit start
	// nor any trigger or root node to begin at.
	ErrNoStartNode = errors.New("workflow has no start node")

	// ErrDanglingConnection indicates an edge references a node id that is
	// not in the definition.
	ErrDanglingConnection = errors.New("connection references unknown node")

	// ErrCyclicWorkflow indicates the definition's graph contains a cycle.
	ErrCyclicWorkflow = errors.New("workflow contains a cycle")

	// ErrInvalidParameters indicates node parameters failed schema
	// validation.
	ErrInvalidParameters = errors.New("invalid node parameters")

	// ErrTimeout indicates the execution exceeded its configured budget.
	ErrTimeout = errors.New("workflow execution timed out")

	// ErrCanceled indicates the caller canceled the execution before it
	// reached a terminal state.
	ErrCanceled = errors.New("workflow execution canceled")
)
