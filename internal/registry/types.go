package registry

import (
	"strconv"
	"time"
)

// HealthCheck describes an optional HTTP health probe for a service.
type HealthCheck struct {
	Path    string `json:"path"`
	Timeout int    `json:"timeout"`
}

// ServiceConfig is one runnable service (frontend or backend) of a project.
// A nil *ServiceConfig on Project means the service is not part of the
// project at all; Enabled=false means it is configured but not started.
type ServiceConfig struct {
	Enabled     bool              `json:"enabled"`
	Port        *int              `json:"port"`
	Command     string            `json:"command"`
	Cwd         string            `json:"cwd,omitempty"`
	Env         map[string]string `json:"env"`
	HealthCheck *HealthCheck      `json:"health_check,omitempty"`
}

// Project is a registered development project.
type Project struct {
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	Path         string            `json:"path"`
	Description  string            `json:"description,omitempty"`
	Frontend     *ServiceConfig    `json:"frontend,omitempty"`
	Backend      *ServiceConfig    `json:"backend,omitempty"`
	EnvVars      map[string]string `json:"env_vars"`
	Dependencies []string          `json:"dependencies"`
	Tags         []string          `json:"tags"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Notes        string            `json:"notes,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate registry state in place.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Frontend = p.Frontend.clone()
	out.Backend = p.Backend.clone()
	out.EnvVars = cloneStringMap(p.EnvVars)
	out.Dependencies = append([]string(nil), p.Dependencies...)
	out.Tags = append([]string(nil), p.Tags...)
	return &out
}

func (s *ServiceConfig) clone() *ServiceConfig {
	if s == nil {
		return nil
	}
	out := *s
	if s.Port != nil {
		port := *s.Port
		out.Port = &port
	}
	out.Env = cloneStringMap(s.Env)
	if s.HealthCheck != nil {
		hc := *s.HealthCheck
		out.HealthCheck = &hc
	}
	return &out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// PortRange is a contiguous pool of ports with an exclusion list.
type PortRange struct {
	Start    int   `json:"start"`
	End      int   `json:"end"`
	Reserved []int `json:"reserved"`
}

// Contains reports whether port falls inside the inclusive range bounds.
func (r PortRange) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

// IsReserved reports whether port is excluded from allocation.
func (r PortRange) IsReserved(port int) bool {
	for _, p := range r.Reserved {
		if p == port {
			return true
		}
	}
	return false
}

// UsableSlots is the number of ports the range can ever hand out.
func (r PortRange) UsableSlots() int {
	return r.End - r.Start + 1 - len(r.Reserved)
}

// PortAllocation tracks which project owns each handed-out port. Keys of
// Allocated are decimal port numbers; string-keyed to keep the persisted
// document stable.
type PortAllocation struct {
	FrontendRange PortRange         `json:"frontend_range"`
	BackendRange  PortRange         `json:"backend_range"`
	Allocated     map[string]string `json:"allocated"`
}

// Owner returns the project holding port, or "" when the port is free.
func (a PortAllocation) Owner(port int) string {
	return a.Allocated[strconv.Itoa(port)]
}

// Settings holds global behavior switches.
type Settings struct {
	AutoGenerateEnv     bool     `json:"auto_generate_env"`
	EnvFileName         string   `json:"env_file_name"`
	EcosystemPath       string   `json:"pm2_ecosystem_path"`
	LogRetentionDays    int      `json:"log_retention_days"`
	HealthCheckInterval int      `json:"health_check_interval"`
	DefaultTags         []string `json:"default_tags"`
}

// Metadata carries summary bookkeeping refreshed on every save.
// ActiveProjects is advisory only; it is stored but never verified.
type Metadata struct {
	CreatedAt      time.Time `json:"created_at"`
	LastModified   time.Time `json:"last_modified"`
	LastModifiedBy string    `json:"last_modified_by"`
	TotalProjects  int       `json:"total_projects"`
	ActiveProjects int       `json:"active_projects"`
}

// Registry is the root aggregate persisted as a single JSON document.
type Registry struct {
	Version        string              `json:"version"`
	Projects       map[string]*Project `json:"projects"`
	PortAllocation PortAllocation      `json:"port_allocation"`
	Settings       Settings            `json:"settings"`
	Metadata       Metadata            `json:"metadata"`
}
