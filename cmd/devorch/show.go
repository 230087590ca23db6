package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type showOptions struct {
	output string
}

func newShowCmd(app *AppContext) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a project's full registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}

func runShow(cmd *cobra.Command, app *AppContext, name string, opts *showOptions) error {
	proj, err := app.Directory.Get(name)
	if err != nil {
		return err
	}

	switch opts.output {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(proj)
	case "yaml":
		// Round-trip through JSON so the YAML keys match the persisted
		// document field names.
		data, err := json.Marshal(proj)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q, expected json or yaml", opts.output)
	}
}
