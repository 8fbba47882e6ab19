// Package workflow implements definition validation and the execution
// state machine for DAG workflows.
package workflow

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/weftworks/weft/pkg/expression"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/registry"
)

// Validator checks workflow definitions before they are stored or
// executed: structural integrity, known node types, parameter schemas,
// edge targets and cycle freedom.
type Validator struct {
	registry *registry.Registry
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator backed by the handler registry.
func NewValidator(registry *registry.Registry, logger *slog.Logger) *Validator {
	return &Validator{
		registry: registry,
		validate: validator.New(),
		logger:   logger,
	}
}

// Validate checks a definition and returns non-fatal warnings (such as
// unreachable nodes). The first fatal problem is returned as the error.
func (v *Validator) Validate(definition *models.WorkflowDefinition) ([]string, error) {
	if err := v.validate.Struct(definition); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	for _, id := range sortedNodeIDs(definition) {
		node := definition.Nodes[id]

		if node.ID != id {
			return nil, fmt.Errorf("%w: node keyed %q declares id %q", ErrDanglingConnection, id, node.ID)
		}

		if !v.registry.IsRegistered(node.Type) {
			return nil, fmt.Errorf("node %s: %w: %s", id, registry.ErrUnknownNodeType, node.Type)
		}

		if err := v.registry.ValidateParameters(node.Type, node.Parameters); err != nil {
			return nil, fmt.Errorf("node %s: %w: %v", id, ErrInvalidParameters, err)
		}

		if err := checkEdges(definition, node); err != nil {
			return nil, err
		}
	}

	start, err := StartNode(definition)
	if err != nil {
		return nil, err
	}

	if err := checkAcyclic(definition); err != nil {
		return nil, err
	}

	warnings := unreachableWarnings(definition, start)
	for _, warning := range warnings {
		v.logger.Warn("workflow validation warning", "workflow", definition.ID, "warning", warning)
	}

	return warnings, nil
}

// checkEdges verifies every outgoing edge of a node lands on a known node.
func checkEdges(definition *models.WorkflowDefinition, node *models.WorkflowNode) error {
	if node.Next != "" && definition.Node(node.Next) == nil {
		return fmt.Errorf("node %s: %w: next -> %s", node.ID, ErrDanglingConnection, node.Next)
	}

	for _, branchKey := range []string{"trueBranch", "falseBranch"} {
		if target, ok := node.Parameters[branchKey].(string); ok && target != "" {
			if definition.Node(target) == nil {
				return fmt.Errorf("node %s: %w: %s -> %s", node.ID, ErrDanglingConnection, branchKey, target)
			}
		}
	}

	for port, targets := range definition.Connections[node.ID] {
		for _, target := range targets {
			if definition.Node(target) == nil {
				return fmt.Errorf("node %s: %w: port %q -> %s", node.ID, ErrDanglingConnection, port, target)
			}
		}
	}

	return nil
}

// StartNode picks the node an execution begins at: the explicit start when
// set, otherwise the single trigger node, otherwise the single node with
// no incoming edges.
func StartNode(definition *models.WorkflowDefinition) (string, error) {
	if definition.Start != "" {
		if definition.Node(definition.Start) == nil {
			return "", fmt.Errorf("%w: start -> %s", ErrDanglingConnection, definition.Start)
		}

		return definition.Start, nil
	}

	triggers := definition.TriggerNodes()
	if len(triggers) == 1 {
		return triggers[0], nil
	}

	roots := rootNodes(definition)
	if len(roots) == 1 {
		return roots[0], nil
	}

	return "", ErrNoStartNode
}

// rootNodes returns node ids with no incoming edges, sorted.
func rootNodes(definition *models.WorkflowDefinition) []string {
	incoming := make(map[string]bool, len(definition.Nodes))

	for _, node := range definition.Nodes {
		for _, target := range outgoingEdges(definition, node) {
			incoming[target] = true
		}
	}

	roots := make([]string, 0)

	for id := range definition.Nodes {
		if !incoming[id] {
			roots = append(roots, id)
		}
	}

	sort.Strings(roots)

	return roots
}

// outgoingEdges lists every possible successor of a node: its Next link,
// its branch parameters and its connections-table entries.
func outgoingEdges(definition *models.WorkflowDefinition, node *models.WorkflowNode) []string {
	targets := make([]string, 0)

	if node.Next != "" {
		targets = append(targets, node.Next)
	}

	for _, branchKey := range []string{"trueBranch", "falseBranch"} {
		if target, ok := node.Parameters[branchKey].(string); ok && target != "" {
			targets = append(targets, target)
		}
	}

	for _, portTargets := range definition.Connections[node.ID] {
		targets = append(targets, portTargets...)
	}

	return targets
}

// NextNode resolves the successor after a node completes: a
// handler-directed Next wins, then the node's own Next link, then the
// connections table keyed by the result's output port. Empty means the
// run terminates.
func NextNode(definition *models.WorkflowDefinition, node *models.WorkflowNode, result *models.NodeExecutionResult) string {
	if result != nil && result.Next != "" {
		return result.Next
	}

	if node.Next != "" {
		return node.Next
	}

	port := "main"
	if result != nil {
		port = result.Port()
	}

	if targets := definition.Connections[node.ID][port]; len(targets) > 0 {
		return targets[0]
	}

	return ""
}

// checkAcyclic rejects definitions whose graph contains a cycle, walking
// every possible edge including both conditional branches.
func checkAcyclic(definition *models.WorkflowDefinition) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(definition.Nodes))

	var visit func(id string) error

	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: at node %s", ErrCyclicWorkflow, id)
		case done:
			return nil
		}

		state[id] = visiting

		node := definition.Node(id)
		if node != nil {
			for _, target := range outgoingEdges(definition, node) {
				if definition.Node(target) == nil {
					continue
				}

				if err := visit(target); err != nil {
					return err
				}
			}
		}

		state[id] = done

		return nil
	}

	for _, id := range sortedNodeIDs(definition) {
		if err := visit(id); err != nil {
			return err
		}
	}

	return nil
}

// unreachableWarnings reports nodes no path from the start can reach.
func unreachableWarnings(definition *models.WorkflowDefinition, start string) []string {
	reachable := make(map[string]bool, len(definition.Nodes))
	queue := []string{start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if reachable[id] {
			continue
		}

		reachable[id] = true

		if node := definition.Node(id); node != nil {
			for _, target := range outgoingEdges(definition, node) {
				if definition.Node(target) != nil && !reachable[target] {
					queue = append(queue, target)
				}
			}
		}
	}

	warnings := make([]string, 0)

	for _, id := range sortedNodeIDs(definition) {
		if !reachable[id] {
			warnings = append(warnings, fmt.Sprintf("node %s is unreachable from start node %s", id, start))
		}
	}

	return warnings
}

// ReferencedExpressions lists every {{ }} expression used anywhere in the
// definition's node parameters, deduplicated and sorted. Useful for showing
// which variables and node outputs a definition depends on.
func ReferencedExpressions(definition *models.WorkflowDefinition) []string {
	seen := make(map[string]bool)

	var collect func(value any)

	collect = func(value any) {
		switch v := value.(type) {
		case string:
			for _, expr := range expression.ExtractExpressions(v) {
				seen[expr] = true
			}
		case map[string]any:
			for _, nested := range v {
				collect(nested)
			}
		case []any:
			for _, nested := range v {
				collect(nested)
			}
		}
	}

	for _, id := range sortedNodeIDs(definition) {
		for _, value := range definition.Nodes[id].Parameters {
			collect(value)
		}
	}

	expressions := make([]string, 0, len(seen))
	for expr := range seen {
		expressions = append(expressions, expr)
	}

	sort.Strings(expressions)

	return expressions
}

func sortedNodeIDs(definition *models.WorkflowDefinition) []string {
	ids := make([]string, 0, len(definition.Nodes))
	for id := range definition.Nodes {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
