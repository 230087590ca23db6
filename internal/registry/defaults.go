package registry

import "time"

const registryVersion = "1.0.0"

// Default pool bounds. Port 3000 is kept clear for ad-hoc dev servers and
// 8501 for the dashboard, matching the documented registry format.
var (
	defaultFrontendRange = PortRange{Start: 3000, End: 3099, Reserved: []int{3000}}
	defaultBackendRange  = PortRange{Start: 8000, End: 8099, Reserved: []int{8501}}
)

// DefaultSettings returns the settings used when the document omits them.
func DefaultSettings() Settings {
	return Settings{
		AutoGenerateEnv:     true,
		EnvFileName:         ".env.local",
		EcosystemPath:       "ecosystem.config.js",
		LogRetentionDays:    7,
		HealthCheckInterval: 60,
		DefaultTags:         []string{"local"},
	}
}

// NewRegistry builds an empty registry with documented defaults.
func NewRegistry() *Registry {
	now := time.Now()
	return &Registry{
		Version:  registryVersion,
		Projects: map[string]*Project{},
		PortAllocation: PortAllocation{
			FrontendRange: defaultFrontendRange,
			BackendRange:  defaultBackendRange,
			Allocated:     map[string]string{},
		},
		Settings: DefaultSettings(),
		Metadata: Metadata{
			CreatedAt:      now,
			LastModified:   now,
			LastModifiedBy: "system",
		},
	}
}

// normalize fills in defaults for optional fields missing from an older or
// hand-edited document so the rest of the engine never sees zero values.
func (r *Registry) normalize() {
	if r.Version == "" {
		r.Version = registryVersion
	}
	if r.Projects == nil {
		r.Projects = map[string]*Project{}
	}
	if r.PortAllocation.FrontendRange.Start == 0 && r.PortAllocation.FrontendRange.End == 0 {
		r.PortAllocation.FrontendRange = defaultFrontendRange
	}
	if r.PortAllocation.BackendRange.Start == 0 && r.PortAllocation.BackendRange.End == 0 {
		r.PortAllocation.BackendRange = defaultBackendRange
	}
	if r.PortAllocation.Allocated == nil {
		r.PortAllocation.Allocated = map[string]string{}
	}
	defaults := DefaultSettings()
	if r.Settings.EnvFileName == "" {
		r.Settings.EnvFileName = defaults.EnvFileName
	}
	if r.Settings.EcosystemPath == "" {
		r.Settings.EcosystemPath = defaults.EcosystemPath
	}
	if r.Settings.LogRetentionDays == 0 {
		r.Settings.LogRetentionDays = defaults.LogRetentionDays
	}
	if r.Settings.HealthCheckInterval == 0 {
		r.Settings.HealthCheckInterval = defaults.HealthCheckInterval
	}
	if r.Settings.DefaultTags == nil {
		r.Settings.DefaultTags = append([]string(nil), defaults.DefaultTags...)
	}
	for _, p := range r.Projects {
		if p.EnvVars == nil {
			p.EnvVars = map[string]string{}
		}
		if p.Frontend != nil && p.Frontend.Env == nil {
			p.Frontend.Env = map[string]string{}
		}
		if p.Backend != nil && p.Backend.Env == nil {
			p.Backend.Env = map[string]string{}
		}
	}
}
