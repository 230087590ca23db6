package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fred1357944/dev-orchestrator/internal/logger"
	orcherrors "github.com/fred1357944/dev-orchestrator/pkg/errors"
)

const defaultCommandTimeout = 30 * time.Second

// PM2 drives the pm2 process manager through its command-line interface.
type PM2 struct {
	bin     string
	timeout time.Duration
	logDir  string
	log     *logger.Logger
}

var _ Supervisor = (*PM2)(nil)

// NewPM2 creates a PM2 client with the default 30s per-command timeout.
func NewPM2(log *logger.Logger) *PM2 {
	logDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		logDir = filepath.Join(home, ".pm2", "logs")
	}
	return &PM2{
		bin:     "pm2",
		timeout: defaultCommandTimeout,
		logDir:  logDir,
		log:     log,
	}
}

// LogDir returns pm2's per-job log directory.
func (p *PM2) LogDir() string {
	return p.logDir
}

// run executes a pm2 subcommand with a bounded deadline.
func (p *PM2) run(ctx context.Context, extraEnv map[string]string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	display := p.bin + " " + strings.Join(args, " ")

	cmd := exec.CommandContext(ctx, p.bin, args...)
	if len(extraEnv) > 0 {
		env := os.Environ()
		for k, v := range extraEnv {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", orcherrors.NewSupervisorError(orcherrors.SupervisorTimeout, display, "", ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", orcherrors.NewSupervisorError(orcherrors.SupervisorUnavailable, display,
				"pm2 is not installed; run: npm install -g pm2", err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), orcherrors.NewSupervisorError(
				orcherrors.SupervisorCommandFailed, display, strings.TrimSpace(stderr.String()), err)
		}
		return "", "", orcherrors.NewSupervisorError(orcherrors.SupervisorCommandFailed, display, "", err)
	}

	return stdout.String(), stderr.String(), nil
}

// pm2Process mirrors the fields of `pm2 jlist` output the engine consumes.
type pm2Process struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	PM2Env struct {
		Status   string `json:"status"`
		PMUptime int64  `json:"pm_uptime"`
	} `json:"pm2_env"`
	Monit struct {
		Memory uint64  `json:"memory"`
		CPU    float64 `json:"cpu"`
	} `json:"monit"`
}

// List returns all pm2-managed jobs.
func (p *PM2) List(ctx context.Context) ([]Job, error) {
	stdout, _, err := p.run(ctx, nil, "jlist")
	if err != nil {
		return nil, err
	}
	return parseJobList([]byte(stdout))
}

func parseJobList(data []byte) ([]Job, error) {
	var procs []pm2Process
	if err := json.Unmarshal(bytes.TrimSpace(data), &procs); err != nil {
		return nil, fmt.Errorf("failed to parse supervisor job list: %w", err)
	}

	jobs := make([]Job, 0, len(procs))
	for _, proc := range procs {
		job := Job{
			Name:        proc.Name,
			Status:      proc.PM2Env.Status,
			PID:         proc.PID,
			MemoryBytes: proc.Monit.Memory,
			CPUPercent:  proc.Monit.CPU,
		}
		if proc.PM2Env.PMUptime > 0 {
			job.StartedAt = time.UnixMilli(proc.PM2Env.PMUptime)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Start launches the service through bash so compound command lines keep their
// shell semantics. An already-online job of the same name is left alone; a
// stale entry is deleted first so pm2 does not resurrect old settings.
func (p *PM2) Start(ctx context.Context, spec StartSpec) error {
	jobs, err := p.List(ctx)
	if err != nil {
		return err
	}
	if existing, ok := FindJob(jobs, spec.Name); ok {
		if existing.Status == "online" {
			p.log.Debug("job already online", "job", spec.Name)
			return nil
		}
		if err := p.Delete(ctx, spec.Name); err != nil {
			return err
		}
	}

	args := []string{
		"start", "bash",
		"--name", spec.Name,
		"--cwd", spec.Cwd,
		"--interpreter", "none",
		"--", "-c", spec.Command,
	}
	if _, _, err := p.run(ctx, spec.Env, args...); err != nil {
		return err
	}
	p.log.Info("job started", "job", spec.Name, "cwd", spec.Cwd)
	return nil
}

// Stop stops a named job. pm2 reporting the job as unknown is tolerated.
func (p *PM2) Stop(ctx context.Context, name string) error {
	_, stderr, err := p.run(ctx, nil, "stop", name)
	if err != nil && !isNotFound(err, stderr) {
		return err
	}
	return nil
}

// Delete removes a named job from pm2's process list.
func (p *PM2) Delete(ctx context.Context, name string) error {
	_, stderr, err := p.run(ctx, nil, "delete", name)
	if err != nil && !isNotFound(err, stderr) {
		return err
	}
	return nil
}

func isNotFound(err error, stderr string) bool {
	var supErr *orcherrors.SupervisorError
	if !errors.As(err, &supErr) || supErr.Kind != orcherrors.SupervisorCommandFailed {
		return false
	}
	return strings.Contains(strings.ToLower(stderr), "not found")
}
