package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type removeOptions struct {
	keepPorts bool
}

func newRemoveCmd(app *AppContext) *cobra.Command {
	opts := &removeOptions{}

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a project from the registry",
		Long: `Remove a project from the registry, releasing its allocated ports back to
the pool. The project's files on disk are never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.keepPorts, "keep-ports", false, "Leave the project's port allocations in place")

	return cmd
}

func runRemove(cmd *cobra.Command, app *AppContext, name string, opts *removeOptions) error {
	if err := app.Directory.Remove(name, !opts.keepPorts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed project '%s'\n", name)
	return nil
}
