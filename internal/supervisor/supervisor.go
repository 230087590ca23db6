package supervisor

import (
	"context"
	"time"
)

// Job is one managed process as reported by the external supervisor.
type Job struct {
	Name        string
	Status      string
	PID         int
	StartedAt   time.Time
	MemoryBytes uint64
	CPUPercent  float64
}

// StartSpec describes a service to hand to the supervisor. Command is a
// full shell command line; the supervisor runs it through a shell under the
// given symbolic name.
type StartSpec struct {
	Name    string
	Command string
	Cwd     string
	Env     map[string]string
}

// Supervisor is the external process manager. The engine never spawns
// processes itself; it only issues commands by symbolic job name and reads
// back structured job descriptors. Every call is blocking with a bounded
// timeout and carries no retry.
type Supervisor interface {
	// List returns all managed jobs.
	List(ctx context.Context) ([]Job, error)
	// Start launches the described service, replacing a stale job of the
	// same name. Starting an already-online job is a no-op.
	Start(ctx context.Context, spec StartSpec) error
	// Stop stops the named job. Stopping an unknown job is not an error.
	Stop(ctx context.Context, name string) error
	// Delete removes the named job from the supervisor entirely.
	Delete(ctx context.Context, name string) error
	// LogDir is where the supervisor writes per-job stdout/stderr files.
	LogDir() string
}

// FindJob returns the job with the given name from a job list.
func FindJob(jobs []Job, name string) (Job, bool) {
	for _, job := range jobs {
		if job.Name == name {
			return job, true
		}
	}
	return Job{}, false
}
