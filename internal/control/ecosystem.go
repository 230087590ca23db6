package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/shlex"

	"github.com/fred1357944/dev-orchestrator/internal/registry"
)

// ecosystemApp is one entry in the generated supervisor config. Args is a
// proper argument vector so commands with quoted arguments survive intact.
type ecosystemApp struct {
	Name   string            `json:"name"`
	Script string            `json:"script"`
	Args   []string          `json:"args"`
	Cwd    string            `json:"cwd"`
	Env    map[string]string `json:"env"`
}

type ecosystemConfig struct {
	Apps []ecosystemApp `json:"apps"`
}

// GenerateEcosystem writes the supervisor config file with one descriptor
// per enabled service across all projects. The file is regenerated in full
// on every call. Returns the path written.
func (c *Controller) GenerateEcosystem() (string, error) {
	settings := c.dir.Settings()

	var cfg ecosystemConfig
	for _, proj := range c.dir.List(nil) {
		for _, role := range []string{"frontend", "backend"} {
			svc := proj.Frontend
			if role == "backend" {
				svc = proj.Backend
			}
			if svc == nil || !svc.Enabled || svc.Command == "" {
				continue
			}

			app, err := buildEcosystemApp(proj, role, svc)
			if err != nil {
				return "", err
			}
			cfg.Apps = append(cfg.Apps, app)
		}
	}

	path := settings.EcosystemPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir.Store().DataDir(), path)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	content := "// Generated by dev-orchestrator\n// Do not edit manually\n\nmodule.exports = " + string(data) + ";\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write ecosystem config: %w", err)
	}

	c.log.Info("ecosystem config generated", "path", path, "apps", len(cfg.Apps))
	return path, nil
}

func buildEcosystemApp(proj *registry.Project, role string, svc *registry.ServiceConfig) (ecosystemApp, error) {
	parts, err := shlex.Split(svc.Command)
	if err != nil || len(parts) == 0 {
		return ecosystemApp{}, fmt.Errorf("cannot tokenize command for %s: %q", JobName(proj.Name, role), svc.Command)
	}

	cwd := proj.Path
	if svc.Cwd != "" {
		cwd = filepath.Join(proj.Path, svc.Cwd)
	}

	env := map[string]string{}
	if svc.Port != nil {
		env["PORT"] = strconv.Itoa(*svc.Port)
	}
	for k, v := range svc.Env {
		env[k] = v
	}

	return ecosystemApp{
		Name:   JobName(proj.Name, role),
		Script: parts[0],
		Args:   parts[1:],
		Cwd:    cwd,
		Env:    env,
	}, nil
}
