package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEcosystemCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecosystem",
		Short: "Regenerate the supervisor ecosystem config",
		Long: `Regenerate the supervisor ecosystem config from the registry, one app
entry per enabled service. The previous file is replaced in full.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.Controller.GenerateEcosystem()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			return nil
		},
	}

	return cmd
}
