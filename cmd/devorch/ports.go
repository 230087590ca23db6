package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fred1357944/dev-orchestrator/internal/portalloc"
)

func newPortsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "Show port pool usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortsStatus(cmd, app)
		},
	}

	cmd.AddCommand(newPortsValidateCmd(app))

	return cmd
}

func runPortsStatus(cmd *cobra.Command, app *AppContext) error {
	status := app.Allocator.Status()

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "POOL\tRANGE\tUSED\tUTILIZATION\tNEXT\tALLOCATED")
	writeRangeStatus(writer, "frontend", status.Frontend)
	writeRangeStatus(writer, "backend", status.Backend)
	return writer.Flush()
}

func writeRangeStatus(writer *tabwriter.Writer, pool string, st portalloc.RangeStatus) {
	next := "exhausted"
	if st.NextAvailable != nil {
		next = strconv.Itoa(*st.NextAvailable)
	}

	allocated := make([]string, len(st.Allocated))
	for i, port := range st.Allocated {
		allocated[i] = strconv.Itoa(port)
	}

	fmt.Fprintf(writer, "%s\t%d-%d\t%d/%d\t%.0f%%\t%s\t%s\n",
		pool,
		st.Start, st.End,
		len(st.Allocated), st.UsableSlots,
		st.Utilization*100,
		next,
		strings.Join(allocated, ","),
	)
}

type portsValidateOptions struct {
	kind string
}

func newPortsValidateCmd(app *AppContext) *cobra.Command {
	opts := &portsValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <port>",
		Short: "Check whether a port is free to use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[0])
			}

			ok, reason := app.Allocator.Validate(port, opts.kind)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", reason)
				return fmt.Errorf("port %d is not available", port)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.kind, "type", "any", "Pool to validate against: frontend, backend, or any")

	return cmd
}
