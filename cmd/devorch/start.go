package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fred1357944/dev-orchestrator/internal/control"
)

type lifecycleOptions struct {
	services []string
	all      bool
	tags     []string
}

func newStartCmd(app *AppContext) *cobra.Command {
	opts := &lifecycleOptions{}

	cmd := &cobra.Command{
		Use:   "start [project]",
		Short: "Start a project's services through the supervisor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all {
				results, err := app.Controller.StartAll(cmd.Context(), opts.tags)
				if err != nil {
					return err
				}
				return renderResults(cmd, results)
			}
			if len(args) == 0 {
				return fmt.Errorf("project name required unless --all is given")
			}
			result, err := app.Controller.Start(cmd.Context(), args[0], opts.services)
			if err != nil {
				return err
			}
			return renderResult(cmd, result)
		},
	}

	cmd.Flags().StringSliceVar(&opts.services, "service", nil, "Only this service: frontend or backend (repeatable)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Start every registered project")
	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "With --all, only projects carrying this tag (repeatable)")

	return cmd
}

func renderResult(cmd *cobra.Command, result control.OperationResult) error {
	icon := "✓"
	if !result.Success {
		icon = "✗"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", icon, result.Message)
	if !result.Success {
		return fmt.Errorf("operation failed for project '%s'", result.Project)
	}
	return nil
}

func renderResults(cmd *cobra.Command, results []control.OperationResult) error {
	failed := 0
	for _, result := range results {
		icon := "✓"
		if !result.Success {
			icon = "✗"
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", icon, result.Project, result.Message)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed", failed, len(results))
	}
	return nil
}
