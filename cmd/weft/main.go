package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/weftworks/weft/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "weft",
		Usage:                 "Run and validate workflows from the command line",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Aliases:   []string{"r"},
				Usage:     "Execute a workflow definition file and print the output",
				ArgsUsage: "<definition.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "Database connection URL or data directory for persistence",
						Value:   "./data",
						Sources: cli.EnvVars("DATABASE_URL"),
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "Trigger input as a JSON object",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return runWorkflow(ctx, command)
				},
			},
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Validate a workflow definition file",
				ArgsUsage: "<definition.json>",
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return validateWorkflow(ctx, command)
				},
			},
			{
				Name:  "node-types",
				Usage: "List the available node types",
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return listNodeTypes(command)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
