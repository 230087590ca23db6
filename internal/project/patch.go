package project

import (
	"github.com/fred1357944/dev-orchestrator/internal/registry"
)

// Patch enumerates exactly which project fields can be updated. Nil fields
// are left untouched; a set field replaces the stored value wholesale.
// Name is deliberately absent: project names are immutable.
type Patch struct {
	DisplayName  *string
	Description  *string
	Notes        *string
	Tags         *[]string
	EnvVars      *map[string]string
	Dependencies *[]string
}

func (p Patch) apply(proj *registry.Project) {
	if p.DisplayName != nil {
		proj.DisplayName = *p.DisplayName
	}
	if p.Description != nil {
		proj.Description = *p.Description
	}
	if p.Notes != nil {
		proj.Notes = *p.Notes
	}
	if p.Tags != nil {
		proj.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.EnvVars != nil {
		vars := make(map[string]string, len(*p.EnvVars))
		for k, v := range *p.EnvVars {
			vars[k] = v
		}
		proj.EnvVars = vars
	}
	if p.Dependencies != nil {
		proj.Dependencies = append([]string(nil), (*p.Dependencies)...)
	}
}
