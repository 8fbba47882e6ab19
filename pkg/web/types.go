package web

import "github.com/weftworks/weft/pkg/models"

// CreateWorkflowRequest is the request body for creating a workflow. The
// definition is validated structonly here: its id and name are backfilled
// from the stored row by the service layer, and its contents go through
// full definition validation there.
type CreateWorkflowRequest struct {
	Name       string                     `json:"name"       validate:"required,min=3"`
	Owner      string                     `json:"owner,omitempty"`
	Active     *bool                      `json:"is_active,omitempty"`
	Definition *models.WorkflowDefinition `json:"definition" validate:"required,structonly"`
}

// UpdateWorkflowRequest is the request body for updating a workflow. All
// fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name       *string                    `json:"name,omitempty"       validate:"omitempty,min=3"`
	Active     *bool                      `json:"is_active,omitempty"`
	Definition *models.WorkflowDefinition `json:"definition,omitempty" validate:"omitempty,structonly"`
}

// ExecuteWorkflowRequest is the request body for starting a run.
type ExecuteWorkflowRequest struct {
	UserID string         `json:"user_id,omitempty"`
	Input  map[string]any `json:"input,omitempty"`
}

// ExecutionAcceptedResponse is returned for asynchronous dispatch.
type ExecutionAcceptedResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// NodeTypeResponse describes one registered node type.
type NodeTypeResponse struct {
	Type     string         `json:"type"`
	Category string         `json:"category"`
	Schema   map[string]any `json:"schema,omitempty"`
}
