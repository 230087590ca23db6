package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fred1357944/dev-orchestrator/internal/registry"
)

// GenerateEnvFile writes the generated environment file into the project's
// root, overwriting any prior content. Lines are plain KEY=value with no
// quoting. Returns the path written.
func GenerateEnvFile(proj *registry.Project, fileName string) (string, error) {
	lines := []string{
		"# Generated by dev-orchestrator",
		"# Do not edit manually - changes may be overwritten",
		"",
	}

	if proj.Frontend != nil && proj.Frontend.Port != nil {
		lines = append(lines, fmt.Sprintf("FRONTEND_PORT=%d", *proj.Frontend.Port))
	}
	if proj.Backend != nil && proj.Backend.Port != nil {
		lines = append(lines, fmt.Sprintf("BACKEND_PORT=%d", *proj.Backend.Port))
		lines = append(lines, fmt.Sprintf("API_URL=http://localhost:%d", *proj.Backend.Port))
	}

	keys := make([]string, 0, len(proj.EnvVars))
	for k := range proj.EnvVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, proj.EnvVars[k]))
	}

	path := filepath.Join(proj.Path, fileName)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write env file: %w", err)
	}
	return path, nil
}
