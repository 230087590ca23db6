package control

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fred1357944/dev-orchestrator/internal/project"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
	"github.com/fred1357944/dev-orchestrator/internal/supervisor"
)

// Per-service lifecycle states derived from the supervisor's job list.
const (
	ServiceOnline     = "online"
	ServiceStopped    = "stopped"
	ServiceErrored    = "errored"
	ServiceNotStarted = "not_started"
)

// OverallStatus is the per-project aggregation of its service states.
type OverallStatus string

const (
	StatusRunning OverallStatus = "running"
	StatusStopped OverallStatus = "stopped"
	StatusPartial OverallStatus = "partial"
	StatusError   OverallStatus = "error"
)

// String returns the string representation of the status.
func (s OverallStatus) String() string {
	return string(s)
}

// Icon returns the Unicode icon for the status.
func (s OverallStatus) Icon() string {
	switch s {
	case StatusRunning:
		return "🟢"
	case StatusPartial:
		return "🟡"
	case StatusError:
		return "🔴"
	default:
		return "⚪"
	}
}

// Color returns the Lipgloss color for the status.
func (s OverallStatus) Color() lipgloss.Color {
	switch s {
	case StatusRunning:
		return lipgloss.Color("42") // green
	case StatusPartial:
		return lipgloss.Color("226") // yellow
	case StatusError:
		return lipgloss.Color("196") // red
	default:
		return lipgloss.Color("250") // light gray
	}
}

// ServiceStatus is the reconciled view of one service: declared
// configuration merged with the supervisor's live report.
type ServiceStatus struct {
	Name   string
	Status string
	PID    *int
	Port   *int
	Uptime string
	Memory string
	CPU    string
	URL    string
}

// ProjectStatus is the reconciled view of a whole project.
type ProjectStatus struct {
	Name        string
	DisplayName string
	Frontend    *ServiceStatus
	Backend     *ServiceStatus
	Overall     OverallStatus
}

// JobName returns the supervisor's symbolic name for a project service.
func JobName(projectName, service string) string {
	if service == "frontend" {
		return projectName + "-fe"
	}
	return projectName + "-be"
}

// Reconciler merges declared service configuration with the supervisor's
// live job list. It is pure read-side: it never mutates the registry, and
// every status is recomputed per call, never cached.
type Reconciler struct {
	dir *project.Directory
	sup supervisor.Supervisor
}

// NewReconciler creates a Reconciler over the directory and supervisor.
func NewReconciler(dir *project.Directory, sup supervisor.Supervisor) *Reconciler {
	return &Reconciler{dir: dir, sup: sup}
}

// ProjectStatus reconciles a single project.
func (r *Reconciler) ProjectStatus(ctx context.Context, name string) (*ProjectStatus, error) {
	proj, err := r.dir.Get(name)
	if err != nil {
		return nil, err
	}
	jobs, err := r.sup.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildProjectStatus(proj, jobs), nil
}

// AllStatuses reconciles every project, optionally filtered by tags. The
// supervisor is queried once for the whole batch.
func (r *Reconciler) AllStatuses(ctx context.Context, filterTags []string) ([]*ProjectStatus, error) {
	jobs, err := r.sup.List(ctx)
	if err != nil {
		return nil, err
	}

	projects := r.dir.List(filterTags)
	statuses := make([]*ProjectStatus, 0, len(projects))
	for _, proj := range projects {
		statuses = append(statuses, buildProjectStatus(proj, jobs))
	}
	return statuses, nil
}

func buildProjectStatus(proj *registry.Project, jobs []supervisor.Job) *ProjectStatus {
	st := &ProjectStatus{
		Name:        proj.Name,
		DisplayName: proj.DisplayName,
	}

	var states []string
	if proj.Frontend != nil && proj.Frontend.Enabled {
		st.Frontend = buildServiceStatus(jobs, JobName(proj.Name, "frontend"), proj.Frontend.Port)
		states = append(states, st.Frontend.Status)
	}
	if proj.Backend != nil && proj.Backend.Enabled {
		st.Backend = buildServiceStatus(jobs, JobName(proj.Name, "backend"), proj.Backend.Port)
		states = append(states, st.Backend.Status)
	}

	st.Overall = AggregateStatus(states)
	return st
}

func buildServiceStatus(jobs []supervisor.Job, jobName string, port *int) *ServiceStatus {
	st := &ServiceStatus{
		Name:   jobName,
		Status: ServiceNotStarted,
	}
	if port != nil {
		p := *port
		st.Port = &p
		st.URL = fmt.Sprintf("http://localhost:%d", p)
	}

	job, found := supervisor.FindJob(jobs, jobName)
	if !found {
		return st
	}

	switch job.Status {
	case "online":
		st.Status = ServiceOnline
	case "stopped":
		st.Status = ServiceStopped
	default:
		st.Status = ServiceErrored
	}

	if job.PID > 0 {
		pid := job.PID
		st.PID = &pid
	}
	if !job.StartedAt.IsZero() {
		st.Uptime = formatUptime(time.Since(job.StartedAt))
	}
	if job.MemoryBytes > 0 {
		st.Memory = humanize.IBytes(job.MemoryBytes)
	}
	st.CPU = fmt.Sprintf("%.1f%%", job.CPUPercent)
	return st
}

// AggregateStatus derives the overall project status from the states of its
// present services. Pure function of its input.
func AggregateStatus(states []string) OverallStatus {
	if len(states) == 0 {
		return StatusStopped
	}

	allOnline := true
	allIdle := true
	anyErrored := false
	for _, s := range states {
		if s != ServiceOnline {
			allOnline = false
		}
		if s != ServiceStopped && s != ServiceNotStarted {
			allIdle = false
		}
		if s == ServiceErrored {
			anyErrored = true
		}
	}

	switch {
	case allOnline:
		return StatusRunning
	case allIdle:
		return StatusStopped
	case anyErrored:
		return StatusError
	default:
		return StatusPartial
	}
}

func formatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	days := hours / 24
	return fmt.Sprintf("%dd %dh", days, hours%24)
}
