// Package models defines the core domain models for DAG workflow execution.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Node type categories, taken from the namespace prefix of a node type
// ("trigger.manual" -> "trigger").
const (
	CategoryTrigger   = "trigger"
	CategoryAction    = "action"
	CategoryCondition = "condition"
	CategoryUtility   = "utility"
)

// Built-in node types.
const (
	NodeTypeTriggerManual   = "trigger.manual"
	NodeTypeTriggerWebhook  = "trigger.webhook"
	NodeTypeTriggerSchedule = "trigger.schedule"
	NodeTypeHTTPRequest     = "action.http_request"
	NodeTypeGPTPrompt       = "action.gpt_prompt"
	NodeTypeEmail           = "action.email"
	NodeTypeConditionIf     = "condition.if"
	NodeTypeDelay           = "utility.delay"
	NodeTypeSetVariable     = "utility.set_variable"
)

// NodeCategory returns the namespace prefix of a node type, or "" when the
// type carries no namespace.
func NodeCategory(nodeType string) string {
	idx := strings.IndexByte(nodeType, '.')
	if idx <= 0 {
		return ""
	}

	return nodeType[:idx]
}

// WorkflowSettings carries per-workflow execution policy knobs.
type WorkflowSettings struct {
	ExecutionOrder string `json:"execution_order,omitempty"`
	MaxRetries     int    `json:"max_retries,omitempty"     validate:"min=0,max=10"`
	Timeout        int    `json:"timeout,omitempty"         validate:"min=0"` // milliseconds
}

// CredentialRef points a node at an externally managed secret.
type CredentialRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type" validate:"required"`
}

// Position is canvas layout metadata; it has no effect on execution.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorkflowNode is one step in a workflow definition. Parameters may contain
// {{ }} expression templates resolved at execution time.
type WorkflowNode struct {
	ID          string         `json:"id"                    validate:"required"`
	Type        string         `json:"type"                  validate:"required"`
	TypeVersion int            `json:"type_version"`
	Name        string         `json:"name"                  validate:"required,min=1"`
	Parameters  map[string]any `json:"parameters"`
	Credentials *CredentialRef `json:"credentials,omitempty"`
	Position    *Position      `json:"position,omitempty"`
	Next        string         `json:"next,omitempty"` // single successor for linear flows
}

// Category returns the node type's namespace prefix.
func (n *WorkflowNode) Category() string {
	return NodeCategory(n.Type)
}

// IsTrigger reports whether the node is trigger-typed.
func (n *WorkflowNode) IsTrigger() bool {
	return n.Category() == CategoryTrigger
}

// Connections maps a source node id to output-port labels to target node
// ids. It is the branching counterpart of WorkflowNode.Next; conditionals
// use labels such as "true" and "false".
type Connections map[string]map[string][]string

// WorkflowDefinition is a named, executable node graph.
type WorkflowDefinition struct {
	ID          string                   `json:"id"                    validate:"required"`
	Name        string                   `json:"name"                  validate:"required,min=3"`
	Active      bool                     `json:"active"`
	Start       string                   `json:"start,omitempty"`
	Nodes       map[string]*WorkflowNode `json:"nodes"                 validate:"required,dive"`
	Connections Connections              `json:"connections,omitempty"`
	Settings    *WorkflowSettings        `json:"settings,omitempty"`
}

// Node returns the node with the given id, or nil.
func (d *WorkflowDefinition) Node(id string) *WorkflowNode {
	if d.Nodes == nil {
		return nil
	}

	return d.Nodes[id]
}

// TriggerNodes returns the ids of all trigger-typed nodes.
func (d *WorkflowDefinition) TriggerNodes() []string {
	ids := make([]string, 0)

	for id, node := range d.Nodes {
		if node.IsTrigger() {
			ids = append(ids, id)
		}
	}

	return ids
}

// MaxRetries returns the configured per-node retry cap, or 0.
func (d *WorkflowDefinition) MaxRetries() int {
	if d.Settings == nil || d.Settings.MaxRetries < 0 {
		return 0
	}

	return d.Settings.MaxRetries
}

// TimeoutDuration returns the total execution budget, or 0 when unbounded.
func (d *WorkflowDefinition) TimeoutDuration() time.Duration {
	if d.Settings == nil || d.Settings.Timeout <= 0 {
		return 0
	}

	return time.Duration(d.Settings.Timeout) * time.Millisecond
}

// Default settings applied by NewLinearDefinition.
const (
	DefaultMaxRetries = 3
	DefaultTimeoutMS  = 300000 // 5 minutes
)

// NewLinearDefinition builds a definition from an ordered node list,
// generating node ids and chaining them through Next links.
func NewLinearDefinition(name string, nodes []*WorkflowNode) *WorkflowDefinition {
	definition := &WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        name,
		Active:      true,
		Nodes:       make(map[string]*WorkflowNode, len(nodes)),
		Connections: make(Connections),
		Settings: &WorkflowSettings{
			ExecutionOrder: "v1",
			MaxRetries:     DefaultMaxRetries,
			Timeout:        DefaultTimeoutMS,
		},
	}

	ids := make([]string, len(nodes))
	for i := range nodes {
		ids[i] = fmt.Sprintf("node-%d", i+1)
	}

	for i, node := range nodes {
		node.ID = ids[i]
		if i < len(nodes)-1 {
			node.Next = ids[i+1]
		}

		definition.Nodes[ids[i]] = node
	}

	if len(ids) > 0 {
		definition.Start = ids[0]
	}

	return definition
}

// WorkflowStatus represents the lifecycle state of a stored workflow.
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusInactive WorkflowStatus = "inactive"
)

// Workflow is the persisted record wrapping a definition.
type Workflow struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"        validate:"required,min=3"`
	Status     WorkflowStatus      `json:"status"      validate:"required"`
	Active     bool                `json:"is_active"`
	Owner      string              `json:"owner,omitempty"`
	Definition *WorkflowDefinition `json:"definition"  validate:"required"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	DeletedAt  *time.Time          `json:"deleted_at,omitempty"`
}
