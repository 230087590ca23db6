package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd(app *AppContext) *cobra.Command {
	opts := &lifecycleOptions{}

	cmd := &cobra.Command{
		Use:   "stop [project]",
		Short: "Stop a project's services",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all {
				results, err := app.Controller.StopAll(cmd.Context(), opts.tags)
				if err != nil {
					return err
				}
				return renderResults(cmd, results)
			}
			if len(args) == 0 {
				return fmt.Errorf("project name required unless --all is given")
			}
			result, err := app.Controller.Stop(cmd.Context(), args[0], opts.services)
			if err != nil {
				return err
			}
			return renderResult(cmd, result)
		},
	}

	cmd.Flags().StringSliceVar(&opts.services, "service", nil, "Only this service: frontend or backend (repeatable)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Stop every registered project")
	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "With --all, only projects carrying this tag (repeatable)")

	return cmd
}
