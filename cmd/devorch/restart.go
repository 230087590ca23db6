package main

import (
	"github.com/spf13/cobra"
)

func newRestartCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart <project>",
		Short: "Restart a project's services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Controller.Restart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderResult(cmd, result)
		},
	}

	return cmd
}
