package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/persistence"
	"github.com/weftworks/weft/pkg/registry"
	"github.com/weftworks/weft/pkg/workflow"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow provides workflow CRUD with definition validation.
type Workflow struct {
	persistence persistence.Persistence
	validator   *workflow.Validator
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence, r *registry.Registry, logger *slog.Logger) *Workflow {
	return &Workflow{
		persistence: p,
		validator:   workflow.NewValidator(r, logger),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns all stored workflows.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID returns one workflow.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.Workflows().ByID(ctx, id)
}

// ValidationResult carries the outcome of validating a definition.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
	Expressions []string `json:"expressions,omitempty"` // referenced {{ }} expressions
}

// Validate checks a definition without storing it.
func (w *Workflow) Validate(definition *models.WorkflowDefinition) *ValidationResult {
	if definition == nil {
		return &ValidationResult{Valid: false, Error: ErrDefinitionRequired.Error()}
	}

	warnings, err := w.validator.Validate(definition)
	if err != nil {
		return &ValidationResult{Valid: false, Warnings: warnings, Error: err.Error()}
	}

	return &ValidationResult{
		Valid:       true,
		Warnings:    warnings,
		Expressions: workflow.ReferencedExpressions(definition),
	}
}

// Create validates and stores a new workflow.
func (w *Workflow) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if wf != nil && wf.ID == "" {
		wf.ID = uuid.New().String()
	}

	if err := w.check(wf); err != nil {
		return nil, err
	}

	if wf.Status == "" {
		wf.Status = models.WorkflowStatusActive
		wf.Active = true
	}

	if err := w.persistence.Workflows().Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return wf, nil
}

// Update validates and overwrites an existing workflow.
func (w *Workflow) Update(ctx context.Context, id string, wf *models.Workflow) (*models.Workflow, error) {
	existing, err := w.persistence.Workflows().ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wf.ID = existing.ID
	wf.CreatedAt = existing.CreatedAt

	if err := w.check(wf); err != nil {
		return nil, err
	}

	if err := w.persistence.Workflows().Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return wf, nil
}

// Delete soft-deletes a workflow.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.persistence.Workflows().Delete(ctx, id)
}

func (w *Workflow) check(wf *models.Workflow) error {
	if wf == nil {
		return ErrWorkflowNil
	}

	if wf.Name == "" {
		return ErrWorkflowNameRequired
	}

	if wf.Definition == nil {
		return ErrDefinitionRequired
	}

	if len(wf.Definition.Nodes) == 0 {
		return ErrNodesRequired
	}

	// Keep the stored definition's identity aligned with the row.
	if wf.Definition.ID == "" {
		wf.Definition.ID = wf.ID
	}

	if wf.Definition.Name == "" {
		wf.Definition.Name = wf.Name
	}

	if _, err := w.validator.Validate(wf.Definition); err != nil {
		return NewValidationError("Validate", err.Error(), ErrInvalidRequest)
	}

	return nil
}
