package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/weftworks/weft/pkg/cmd"
	"github.com/weftworks/weft/pkg/log"
	"github.com/weftworks/weft/pkg/models"
	"github.com/weftworks/weft/pkg/services"
	"github.com/weftworks/weft/pkg/workflow"
)

func loadDefinition(path string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var definition models.WorkflowDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	return &definition, nil
}

func definitionPath(command *cli.Command) (string, error) {
	path := command.Args().First()
	if path == "" {
		return "", fmt.Errorf("usage: weft %s <definition.json>", command.Name)
	}

	return path, nil
}

func runWorkflow(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("cli")

	path, err := definitionPath(command)
	if err != nil {
		return err
	}

	definition, err := loadDefinition(path)
	if err != nil {
		return err
	}

	var input map[string]any

	if raw := command.String("input"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			return fmt.Errorf("failed to parse input: %w", err)
		}
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	registry := cmd.NewRegistry(logger)
	executor := workflow.NewExecutor(persistence, registry, logger)
	workflowService := services.NewWorkflow(persistence, registry, logger)
	executionService := services.NewExecution(persistence, executor, logger)

	name := definition.Name
	if name == "" {
		name = "CLI Workflow"
	}

	stored, err := workflowService.Create(ctx, &models.Workflow{
		Name:       name,
		Definition: definition,
	})
	if err != nil {
		return err
	}

	execution, err := executionService.Execute(ctx, stored.ID, "", input)
	if err != nil {
		return err
	}

	return printJSON(execution)
}

func validateWorkflow(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("cli")

	path, err := definitionPath(command)
	if err != nil {
		return err
	}

	definition, err := loadDefinition(path)
	if err != nil {
		return err
	}

	if definition.ID == "" {
		definition.ID = "cli-validation"
	}

	registry := cmd.NewRegistry(logger)
	validator := workflow.NewValidator(registry, logger)

	warnings, err := validator.Validate(definition)
	for _, warning := range warnings {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}

	if err != nil {
		return err
	}

	fmt.Println("Workflow definition is valid")

	return nil
}

func listNodeTypes(command *cli.Command) error {
	registry := cmd.NewRegistry(log.WithModule("cli"))

	for _, category := range []string{"trigger", "action", "condition", "utility"} {
		for _, nodeType := range registry.ListByCategory(category) {
			fmt.Printf("%-10s %s\n", category, nodeType)
		}
	}

	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
