package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fred1357944/dev-orchestrator/internal/project"
)

type registerOptions struct {
	displayName     string
	description     string
	frontendCommand string
	backendCommand  string
	frontendCwd     string
	backendCwd      string
	env             []string
	tags            []string
	noPorts         bool
}

func newRegisterCmd(app *AppContext) *cobra.Command {
	opts := &registerOptions{}

	cmd := &cobra.Command{
		Use:   "register <name> <path>",
		Short: "Register a project in the registry",
		Long: `Register a project so its services can be assigned ports and managed
through the process supervisor. Ports are allocated for exactly the
services given a start command.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, app, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.displayName, "display-name", "", "Human-readable name (derived from the project name if omitted)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Optional description")
	cmd.Flags().StringVar(&opts.frontendCommand, "frontend-cmd", "", "Frontend start command")
	cmd.Flags().StringVar(&opts.backendCommand, "backend-cmd", "", "Backend start command")
	cmd.Flags().StringVar(&opts.frontendCwd, "frontend-cwd", "", "Frontend working directory, relative to the project path")
	cmd.Flags().StringVar(&opts.backendCwd, "backend-cwd", "", "Backend working directory, relative to the project path")
	cmd.Flags().StringArrayVarP(&opts.env, "env", "e", nil, "Project environment variable KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "Tag to attach (repeatable)")
	cmd.Flags().BoolVar(&opts.noPorts, "no-ports", false, "Skip automatic port allocation")

	return cmd
}

func runRegister(cmd *cobra.Command, app *AppContext, name, path string, opts *registerOptions) error {
	envVars, err := parseEnvPairs(opts.env)
	if err != nil {
		return err
	}

	proj, err := app.Directory.Register(project.RegisterOptions{
		Name:              name,
		Path:              path,
		DisplayName:       opts.displayName,
		Description:       opts.description,
		FrontendCommand:   opts.frontendCommand,
		BackendCommand:    opts.backendCommand,
		FrontendCwd:       opts.frontendCwd,
		BackendCwd:        opts.backendCwd,
		EnvVars:           envVars,
		Tags:              opts.tags,
		AutoAllocatePorts: !opts.noPorts,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Registered project '%s' (%s)\n", proj.Name, proj.DisplayName)
	fmt.Fprintf(out, "  Path: %s\n", proj.Path)
	if proj.Frontend != nil && proj.Frontend.Port != nil {
		fmt.Fprintf(out, "  Frontend port: %d\n", *proj.Frontend.Port)
	}
	if proj.Backend != nil && proj.Backend.Port != nil {
		fmt.Fprintf(out, "  Backend port: %d\n", *proj.Backend.Port)
	}
	if len(proj.Tags) > 0 {
		fmt.Fprintf(out, "  Tags: %s\n", strings.Join(proj.Tags, ", "))
	}
	fmt.Fprintf(out, "\nRun 'devorch start %s' to launch its services.\n", proj.Name)
	return nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}
