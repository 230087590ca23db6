package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type logsOptions struct {
	service string
	lines   int
}

func newLogsCmd(app *AppContext) *cobra.Command {
	opts := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs <project>",
		Short: "Show the tail of a project's supervisor logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Controller.Logs(args[0], opts.service, opts.lines)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.service, "service", "both", "Which service: frontend, backend, or both")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 100, "Number of stdout lines to show")

	return cmd
}
