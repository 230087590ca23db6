package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fred1357944/dev-orchestrator/internal/logger"
	"github.com/fred1357944/dev-orchestrator/internal/portalloc"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
	orcherrors "github.com/fred1357944/dev-orchestrator/pkg/errors"
)

// Directory owns CRUD over project entities. It is the sole writer of the
// projects map; persistence goes through the registry store and port
// lifecycle through the allocator.
type Directory struct {
	store *registry.Store
	alloc *portalloc.Allocator
	log   *logger.Logger
}

// NewDirectory creates a Directory over the given store and allocator.
func NewDirectory(store *registry.Store, alloc *portalloc.Allocator, log *logger.Logger) *Directory {
	return &Directory{store: store, alloc: alloc, log: log}
}

// Store exposes the backing registry store.
func (d *Directory) Store() *registry.Store {
	return d.store
}

// RegisterOptions carries the inputs for registering a new project.
type RegisterOptions struct {
	Name              string `validate:"required,project_name"`
	Path              string `validate:"required"`
	DisplayName       string
	Description       string
	FrontendCommand   string
	BackendCommand    string
	FrontendCwd       string
	BackendCwd        string
	EnvVars           map[string]string
	Tags              []string
	AutoAllocatePorts bool
}

// Register creates a new project. Ports are allocated for exactly the
// services that have a start command; a service without a command is absent
// from the project, not disabled. Registration either fully succeeds or
// leaves no trace: a port-exhaustion failure aborts with nothing persisted.
func (d *Directory) Register(opts RegisterOptions) (*registry.Project, error) {
	if err := validatorInstance().Struct(opts); err != nil {
		if nameErr := ValidateName(opts.Name); nameErr != nil {
			return nil, nameErr
		}
		return nil, err
	}

	var exists bool
	d.store.View(func(reg *registry.Registry) {
		_, exists = reg.Projects[opts.Name]
	})
	if exists {
		return nil, orcherrors.NewProjectExistsError(opts.Name)
	}

	absPath, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, orcherrors.NewInvalidPathError(opts.Path, err.Error())
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, orcherrors.NewInvalidPathError(opts.Path, "does not exist")
	}
	if !info.IsDir() {
		return nil, orcherrors.NewInvalidPathError(opts.Path, "is not a directory")
	}

	needFrontend := opts.FrontendCommand != ""
	needBackend := opts.BackendCommand != ""

	var ports portalloc.Ports
	if opts.AutoAllocatePorts && (needFrontend || needBackend) {
		ports, err = d.alloc.Allocate(opts.Name, needFrontend, needBackend)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	proj := &registry.Project{
		Name:        opts.Name,
		DisplayName: opts.DisplayName,
		Path:        absPath,
		Description: opts.Description,
		EnvVars:     opts.EnvVars,
		Tags:        nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if proj.DisplayName == "" {
		proj.DisplayName = defaultDisplayName(opts.Name)
	}
	if proj.EnvVars == nil {
		proj.EnvVars = map[string]string{}
	}
	if needFrontend {
		proj.Frontend = &registry.ServiceConfig{
			Enabled: true,
			Port:    ports.Frontend,
			Command: opts.FrontendCommand,
			Cwd:     opts.FrontendCwd,
			Env:     map[string]string{},
		}
	}
	if needBackend {
		proj.Backend = &registry.ServiceConfig{
			Enabled: true,
			Port:    ports.Backend,
			Command: opts.BackendCommand,
			Cwd:     opts.BackendCwd,
			Env:     map[string]string{},
		}
	}

	var settings registry.Settings
	err = d.store.Mutate("register_project", func(reg *registry.Registry) (bool, error) {
		if _, taken := reg.Projects[opts.Name]; taken {
			return false, orcherrors.NewProjectExistsError(opts.Name)
		}
		proj.Tags = mergeTags(reg.Settings.DefaultTags, opts.Tags)
		settings = reg.Settings
		reg.Projects[opts.Name] = proj
		return true, nil
	})
	if err != nil {
		// Undo the port grant so the failed registration leaves no trace.
		if _, releaseErr := d.alloc.Release(opts.Name); releaseErr != nil {
			d.log.Error(releaseErr, "failed to release ports after aborted registration", "project", opts.Name)
		}
		return nil, err
	}

	d.log.Info("project registered", "project", proj.Name, "path", proj.Path)

	// Env-file generation is a post-commit side effect; its failure must not
	// roll back the registration.
	if settings.AutoGenerateEnv {
		if _, genErr := GenerateEnvFile(proj, settings.EnvFileName); genErr != nil {
			d.log.Warn("env file generation failed", "project", proj.Name, "error", genErr.Error())
		}
	}

	return proj.Clone(), nil
}

// defaultDisplayName turns "my-cool-app" into "My Cool App". Computed once
// at creation and never recomputed afterward.
func defaultDisplayName(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// mergeTags unions the registry default tags with the caller-supplied ones.
func mergeTags(defaults, extra []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tag := range append(append([]string{}, defaults...), extra...) {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Get returns a copy of the named project.
func (d *Directory) Get(name string) (*registry.Project, error) {
	var proj *registry.Project
	d.store.View(func(reg *registry.Registry) {
		proj = reg.Projects[name].Clone()
	})
	if proj == nil {
		return nil, orcherrors.NewProjectNotFoundError(name)
	}
	return proj, nil
}

// List returns all projects sorted by name. When filterTags is non-empty
// only projects whose tag set intersects it are returned (OR semantics).
func (d *Directory) List(filterTags []string) []*registry.Project {
	var out []*registry.Project
	d.store.View(func(reg *registry.Registry) {
		for _, proj := range reg.Projects {
			if len(filterTags) > 0 && !tagsIntersect(proj.Tags, filterTags) {
				continue
			}
			out = append(out, proj.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func tagsIntersect(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Search returns projects matching query (case-insensitive substring)
// against name, display name, tags, and description, in that priority
// order, short-circuiting per project on the first match.
func (d *Directory) Search(query string) []*registry.Project {
	query = strings.ToLower(query)
	var out []*registry.Project
	d.store.View(func(reg *registry.Registry) {
		for _, proj := range reg.Projects {
			if matchesQuery(proj, query) {
				out = append(out, proj.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matchesQuery(proj *registry.Project, query string) bool {
	if strings.Contains(strings.ToLower(proj.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(proj.DisplayName), query) {
		return true
	}
	for _, tag := range proj.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return proj.Description != "" && strings.Contains(strings.ToLower(proj.Description), query)
}

// Update applies an explicit field patch and refreshes updated_at. Fields
// not set on the patch are left untouched.
func (d *Directory) Update(name string, patch Patch) (*registry.Project, error) {
	var updated *registry.Project
	err := d.store.Mutate("update_project", func(reg *registry.Registry) (bool, error) {
		proj, ok := reg.Projects[name]
		if !ok {
			return false, orcherrors.NewProjectNotFoundError(name)
		}
		patch.apply(proj)
		proj.UpdatedAt = time.Now()
		updated = proj.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug("project updated", "project", name)
	return updated, nil
}

// Remove deletes a project, releasing its ports first unless told otherwise.
func (d *Directory) Remove(name string, releasePorts bool) error {
	var exists bool
	d.store.View(func(reg *registry.Registry) {
		_, exists = reg.Projects[name]
	})
	if !exists {
		return orcherrors.NewProjectNotFoundError(name)
	}

	if releasePorts {
		released, err := d.alloc.Release(name)
		if err != nil {
			return fmt.Errorf("failed to release ports for '%s': %w", name, err)
		}
		if len(released) > 0 {
			d.log.Info("ports released", "project", name, "ports", released)
		}
	}

	err := d.store.Mutate("remove_project", func(reg *registry.Registry) (bool, error) {
		if _, ok := reg.Projects[name]; !ok {
			return false, orcherrors.NewProjectNotFoundError(name)
		}
		delete(reg.Projects, name)
		return true, nil
	})
	if err != nil {
		return err
	}
	d.log.Info("project removed", "project", name)
	return nil
}

// Settings returns a copy of the registry settings.
func (d *Directory) Settings() registry.Settings {
	var settings registry.Settings
	d.store.View(func(reg *registry.Registry) {
		settings = reg.Settings
		settings.DefaultTags = append([]string(nil), reg.Settings.DefaultTags...)
	})
	return settings
}
