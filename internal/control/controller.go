package control

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fred1357944/dev-orchestrator/internal/logger"
	"github.com/fred1357944/dev-orchestrator/internal/project"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
	"github.com/fred1357944/dev-orchestrator/internal/supervisor"
)

// Controller drives project services through the external supervisor. It
// never spawns processes itself and never mutates the registry.
type Controller struct {
	dir *project.Directory
	sup supervisor.Supervisor
	rec *Reconciler
	log *logger.Logger
}

// NewController creates a Controller over the directory and supervisor.
func NewController(dir *project.Directory, sup supervisor.Supervisor, log *logger.Logger) *Controller {
	return &Controller{
		dir: dir,
		sup: sup,
		rec: NewReconciler(dir, sup),
		log: log,
	}
}

// Reconciler exposes the read-side status reconciler.
func (c *Controller) Reconciler() *Reconciler {
	return c.rec
}

// OperationResult reports the outcome of a start/stop operation. Per-service
// failures are collected into Message; Success is false if any service failed.
type OperationResult struct {
	Success  bool
	Message  string
	Project  string
	Frontend *ServiceStatus
	Backend  *ServiceStatus
}

// requestedServices normalizes the service selector; empty means both.
func requestedServices(services []string) map[string]bool {
	if len(services) == 0 {
		return map[string]bool{"frontend": true, "backend": true}
	}
	out := map[string]bool{}
	for _, s := range services {
		out[s] = true
	}
	return out
}

// Start launches the requested services of a project. Frontend and backend
// are attempted independently; a failure in one does not prevent the other.
func (c *Controller) Start(ctx context.Context, name string, services []string) (OperationResult, error) {
	proj, err := c.dir.Get(name)
	if err != nil {
		return OperationResult{}, err
	}

	want := requestedServices(services)
	var failures []string

	if want["frontend"] && proj.Frontend != nil && proj.Frontend.Enabled {
		if err := c.startService(ctx, proj, "frontend", proj.Frontend); err != nil {
			failures = append(failures, fmt.Sprintf("frontend: %v", err))
		}
	}
	if want["backend"] && proj.Backend != nil && proj.Backend.Enabled {
		if err := c.startService(ctx, proj, "backend", proj.Backend); err != nil {
			failures = append(failures, fmt.Sprintf("backend: %v", err))
		}
	}

	result := OperationResult{Project: name}
	c.attachStatuses(ctx, &result)

	if len(failures) > 0 {
		result.Message = "errors: " + strings.Join(failures, "; ")
		return result, nil
	}

	result.Success = true
	result.Message = fmt.Sprintf("project '%s' started", name)
	var urls []string
	if result.Frontend != nil && result.Frontend.URL != "" {
		urls = append(urls, "frontend: "+result.Frontend.URL)
	}
	if result.Backend != nil && result.Backend.URL != "" {
		urls = append(urls, "backend: "+result.Backend.URL)
	}
	if len(urls) > 0 {
		result.Message += " (" + strings.Join(urls, ", ") + ")"
	}
	return result, nil
}

func (c *Controller) startService(ctx context.Context, proj *registry.Project, role string, svc *registry.ServiceConfig) error {
	cwd := proj.Path
	if svc.Cwd != "" {
		cwd = filepath.Join(proj.Path, svc.Cwd)
	}

	env := map[string]string{}
	for k, v := range svc.Env {
		env[k] = v
	}
	if svc.Port != nil {
		env["PORT"] = strconv.Itoa(*svc.Port)
	}

	return c.sup.Start(ctx, supervisor.StartSpec{
		Name:    JobName(proj.Name, role),
		Command: svc.Command,
		Cwd:     cwd,
		Env:     env,
	})
}

// Stop stops the requested services of a project. Stopping a service that
// was never started is not an error.
func (c *Controller) Stop(ctx context.Context, name string, services []string) (OperationResult, error) {
	if _, err := c.dir.Get(name); err != nil {
		return OperationResult{}, err
	}

	want := requestedServices(services)
	var failures []string

	if want["frontend"] {
		if err := c.sup.Stop(ctx, JobName(name, "frontend")); err != nil {
			failures = append(failures, fmt.Sprintf("frontend: %v", err))
		}
	}
	if want["backend"] {
		if err := c.sup.Stop(ctx, JobName(name, "backend")); err != nil {
			failures = append(failures, fmt.Sprintf("backend: %v", err))
		}
	}

	result := OperationResult{Project: name}
	c.attachStatuses(ctx, &result)

	if len(failures) > 0 {
		result.Message = "errors: " + strings.Join(failures, "; ")
		return result, nil
	}
	result.Success = true
	result.Message = fmt.Sprintf("project '%s' stopped", name)
	return result, nil
}

// Restart stops then starts a project's services.
func (c *Controller) Restart(ctx context.Context, name string) (OperationResult, error) {
	stopped, err := c.Stop(ctx, name, nil)
	if err != nil {
		return OperationResult{}, err
	}
	if !stopped.Success {
		return stopped, nil
	}
	return c.Start(ctx, name, nil)
}

// StartAll starts every project, optionally filtered by tags.
func (c *Controller) StartAll(ctx context.Context, filterTags []string) ([]OperationResult, error) {
	return c.forEach(ctx, filterTags, c.Start)
}

// StopAll stops every project, optionally filtered by tags.
func (c *Controller) StopAll(ctx context.Context, filterTags []string) ([]OperationResult, error) {
	return c.forEach(ctx, filterTags, c.Stop)
}

func (c *Controller) forEach(
	ctx context.Context,
	filterTags []string,
	op func(context.Context, string, []string) (OperationResult, error),
) ([]OperationResult, error) {
	var results []OperationResult
	for _, proj := range c.dir.List(filterTags) {
		result, err := op(ctx, proj.Name, nil)
		if err != nil {
			result = OperationResult{Project: proj.Name, Message: err.Error()}
		}
		results = append(results, result)
	}
	return results, nil
}

// attachStatuses fills in the post-operation service views. Status lookup
// failures are logged, not fatal: the operation itself already happened.
func (c *Controller) attachStatuses(ctx context.Context, result *OperationResult) {
	status, err := c.rec.ProjectStatus(ctx, result.Project)
	if err != nil {
		c.log.Warn("status lookup failed", "project", result.Project, "error", err.Error())
		return
	}
	result.Frontend = status.Frontend
	result.Backend = status.Backend
}
