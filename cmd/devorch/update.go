package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fred1357944/dev-orchestrator/internal/project"
)

type updateOptions struct {
	displayName  string
	description  string
	notes        string
	tags         []string
	env          []string
	dependencies []string
}

func newUpdateCmd(app *AppContext) *cobra.Command {
	opts := &updateOptions{}

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a project's metadata",
		Long: `Update a project's metadata. Only the fields whose flags are given are
changed; a given flag replaces the stored value wholesale. Project names
are immutable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.displayName, "display-name", "", "Human-readable name")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "Replacement tag set (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.env, "env", "e", nil, "Replacement environment variable KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&opts.dependencies, "depends-on", nil, "Replacement dependency list (repeatable)")

	return cmd
}

func runUpdate(cmd *cobra.Command, app *AppContext, name string, opts *updateOptions) error {
	var patch project.Patch
	if cmd.Flags().Changed("display-name") {
		patch.DisplayName = &opts.displayName
	}
	if cmd.Flags().Changed("description") {
		patch.Description = &opts.description
	}
	if cmd.Flags().Changed("notes") {
		patch.Notes = &opts.notes
	}
	if cmd.Flags().Changed("tag") {
		patch.Tags = &opts.tags
	}
	if cmd.Flags().Changed("env") {
		envVars, err := parseEnvPairs(opts.env)
		if err != nil {
			return err
		}
		if envVars == nil {
			envVars = map[string]string{}
		}
		patch.EnvVars = &envVars
	}
	if cmd.Flags().Changed("depends-on") {
		patch.Dependencies = &opts.dependencies
	}

	proj, err := app.Directory.Update(name, patch)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated project '%s'\n", proj.Name)
	return nil
}
