package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fred1357944/dev-orchestrator/internal/control"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
)

type listOptions struct {
	tags       []string
	search     string
	jsonOutput bool
}

func newListCmd(app *AppContext) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered projects with their live status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, app, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "Only projects carrying this tag (repeatable, OR semantics)")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Only projects matching this query")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, app *AppContext, opts *listOptions) error {
	var projects []*registry.Project
	if opts.search != "" {
		projects = app.Directory.Search(opts.search)
	} else {
		projects = app.Directory.List(opts.tags)
	}

	if len(projects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No projects registered yet.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'devorch register <name> <path>' to add your first project.")
		return nil
	}

	// The supervisor is queried once for the whole table; a supervisor
	// failure degrades to a list without live status rather than an error.
	statuses := map[string]*control.ProjectStatus{}
	if all, err := app.Controller.Reconciler().AllStatuses(cmd.Context(), nil); err == nil {
		for _, st := range all {
			statuses[st.Name] = st
		}
	} else {
		app.Logger.Warn("supervisor unavailable, listing without status", "error", err.Error())
	}

	if opts.jsonOutput {
		return renderListJSON(cmd, projects, statuses)
	}
	return renderListTable(cmd, projects, statuses)
}

func renderListTable(cmd *cobra.Command, projects []*registry.Project, statuses map[string]*control.ProjectStatus) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tSTATUS\tFRONTEND\tBACKEND\tTAGS\tPATH")

	for _, proj := range projects {
		overall := control.StatusStopped
		if st, ok := statuses[proj.Name]; ok {
			overall = st.Overall
		}

		style := lipgloss.NewStyle().Foreground(overall.Color())
		statusCell := fmt.Sprintf("%s %s", overall.Icon(), style.Render(overall.String()))

		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			proj.Name,
			statusCell,
			formatServicePort(proj.Frontend),
			formatServicePort(proj.Backend),
			strings.Join(proj.Tags, ","),
			proj.Path,
		)
	}

	return writer.Flush()
}

func formatServicePort(svc *registry.ServiceConfig) string {
	if svc == nil {
		return "-"
	}
	if svc.Port == nil {
		return "(no port)"
	}
	return fmt.Sprintf(":%d", *svc.Port)
}

type listJSONProject struct {
	*registry.Project
	Status string `json:"status"`
}

func renderListJSON(cmd *cobra.Command, projects []*registry.Project, statuses map[string]*control.ProjectStatus) error {
	payload := make([]listJSONProject, len(projects))
	for i, proj := range projects {
		overall := control.StatusStopped
		if st, ok := statuses[proj.Name]; ok {
			overall = st.Overall
		}
		payload[i] = listJSONProject{Project: proj, Status: overall.String()}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
