package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	dataDir  string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	app := &AppContext{}

	cmd := &cobra.Command{
		Use:           "devorch",
		Short:         "devorch manages local dev projects, their ports, and their processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Directory holding the project registry (default ~/.devorch)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newStartCmd(app))
	cmd.AddCommand(newStopCmd(app))
	cmd.AddCommand(newRestartCmd(app))
	cmd.AddCommand(newLogsCmd(app))
	cmd.AddCommand(newPortsCmd(app))
	cmd.AddCommand(newEcosystemCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
