package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fred1357944/dev-orchestrator/internal/portalloc"
	"github.com/fred1357944/dev-orchestrator/internal/project"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
	"github.com/fred1357944/dev-orchestrator/internal/supervisor"
	orcherrors "github.com/fred1357944/dev-orchestrator/pkg/errors"
)

type fakeSupervisor struct {
	jobs      []supervisor.Job
	listCalls int
	listErr   error
	started   []supervisor.StartSpec
	startErr  map[string]error
	stopped   []string
	stopErr   map[string]error
	deleted   []string
	logDir    string
}

func (f *fakeSupervisor) List(ctx context.Context) ([]supervisor.Job, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.jobs, nil
}

func (f *fakeSupervisor) Start(ctx context.Context, spec supervisor.StartSpec) error {
	if err := f.startErr[spec.Name]; err != nil {
		return err
	}
	f.started = append(f.started, spec)
	return nil
}

func (f *fakeSupervisor) Stop(ctx context.Context, name string) error {
	if err := f.stopErr[name]; err != nil {
		return err
	}
	f.stopped = append(f.stopped, name)
	return nil
}

func (f *fakeSupervisor) Delete(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeSupervisor) LogDir() string {
	return f.logDir
}

func newTestDirectory(t *testing.T) *project.Directory {
	t.Helper()
	store, err := registry.NewStore(t.TempDir())
	require.NoError(t, err)
	alloc := portalloc.NewAllocatorWithProber(store, func(int, time.Duration) bool {
		return false
	}, time.Second)
	return project.NewDirectory(store, alloc, nil)
}

func registerBothServices(t *testing.T, dir *project.Directory, name string) *registry.Project {
	t.Helper()
	proj, err := dir.Register(project.RegisterOptions{
		Name:              name,
		Path:              t.TempDir(),
		FrontendCommand:   "npm run dev",
		BackendCommand:    "npm run api",
		AutoAllocatePorts: true,
	})
	require.NoError(t, err)
	return proj
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name   string
		states []string
		want   OverallStatus
	}{
		{"no services", nil, StatusStopped},
		{"all online", []string{ServiceOnline, ServiceOnline}, StatusRunning},
		{"single online", []string{ServiceOnline}, StatusRunning},
		{"all stopped", []string{ServiceStopped, ServiceStopped}, StatusStopped},
		{"stopped and not started", []string{ServiceStopped, ServiceNotStarted}, StatusStopped},
		{"any errored", []string{ServiceOnline, ServiceErrored}, StatusError},
		{"errored alone", []string{ServiceErrored}, StatusError},
		{"mixed online stopped", []string{ServiceOnline, ServiceStopped}, StatusPartial},
		{"online and not started", []string{ServiceOnline, ServiceNotStarted}, StatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateStatus(tc.states))
		})
	}
}

func TestProjectStatusReconciliation(t *testing.T) {
	dir := newTestDirectory(t)
	proj := registerBothServices(t, dir, "my-app")

	sup := &fakeSupervisor{
		jobs: []supervisor.Job{
			{
				Name:        "my-app-fe",
				Status:      "online",
				PID:         1234,
				StartedAt:   time.Now().Add(-90 * time.Second),
				MemoryBytes: 128 * 1024 * 1024,
				CPUPercent:  1.5,
			},
		},
	}
	rec := NewReconciler(dir, sup)

	status, err := rec.ProjectStatus(context.Background(), "my-app")
	require.NoError(t, err)

	assert.Equal(t, "my-app", status.Name)
	assert.Equal(t, "My App", status.DisplayName)
	assert.Equal(t, StatusPartial, status.Overall)

	fe := status.Frontend
	require.NotNil(t, fe)
	assert.Equal(t, ServiceOnline, fe.Status)
	require.NotNil(t, fe.PID)
	assert.Equal(t, 1234, *fe.PID)
	require.NotNil(t, fe.Port)
	assert.Equal(t, *proj.Frontend.Port, *fe.Port)
	assert.Equal(t, "1m", fe.Uptime)
	assert.Equal(t, "128 MiB", fe.Memory)
	assert.Equal(t, "1.5%", fe.CPU)
	assert.Contains(t, fe.URL, "http://localhost:")

	be := status.Backend
	require.NotNil(t, be)
	assert.Equal(t, ServiceNotStarted, be.Status)
	assert.Nil(t, be.PID)
	assert.Contains(t, be.URL, "http://localhost:")
}

func TestProjectStatusMapsUnknownStateToErrored(t *testing.T) {
	dir := newTestDirectory(t)
	registerBothServices(t, dir, "my-app")

	sup := &fakeSupervisor{
		jobs: []supervisor.Job{
			{Name: "my-app-fe", Status: "launching"},
			{Name: "my-app-be", Status: "stopped"},
		},
	}
	rec := NewReconciler(dir, sup)

	status, err := rec.ProjectStatus(context.Background(), "my-app")
	require.NoError(t, err)
	assert.Equal(t, ServiceErrored, status.Frontend.Status)
	assert.Equal(t, ServiceStopped, status.Backend.Status)
	assert.Equal(t, StatusError, status.Overall)
}

func TestProjectStatusUnknownProject(t *testing.T) {
	rec := NewReconciler(newTestDirectory(t), &fakeSupervisor{})

	_, err := rec.ProjectStatus(context.Background(), "ghost")
	var notFound *orcherrors.ProjectNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProjectStatusPropagatesSupervisorError(t *testing.T) {
	dir := newTestDirectory(t)
	registerBothServices(t, dir, "my-app")

	supErr := orcherrors.NewSupervisorError(orcherrors.SupervisorUnavailable, "pm2 jlist", "missing", nil)
	rec := NewReconciler(dir, &fakeSupervisor{listErr: supErr})

	_, err := rec.ProjectStatus(context.Background(), "my-app")
	assert.ErrorIs(t, err, supErr)
}

func TestAllStatusesSingleSupervisorQuery(t *testing.T) {
	dir := newTestDirectory(t)
	registerBothServices(t, dir, "app-one")
	registerBothServices(t, dir, "app-two")

	sup := &fakeSupervisor{}
	rec := NewReconciler(dir, sup)

	statuses, err := rec.AllStatuses(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
	assert.Equal(t, 1, sup.listCalls)
}

func TestDisabledServiceIsIgnored(t *testing.T) {
	dir := newTestDirectory(t)
	registerBothServices(t, dir, "my-app")

	// Disable the frontend directly in the registry.
	store := dir.Store()
	require.NoError(t, store.Mutate("test_setup", func(reg *registry.Registry) (bool, error) {
		reg.Projects["my-app"].Frontend.Enabled = false
		return true, nil
	}))

	rec := NewReconciler(dir, &fakeSupervisor{
		jobs: []supervisor.Job{{Name: "my-app-be", Status: "online"}},
	})
	status, err := rec.ProjectStatus(context.Background(), "my-app")
	require.NoError(t, err)

	assert.Nil(t, status.Frontend)
	assert.Equal(t, StatusRunning, status.Overall)
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "my-app-fe", JobName("my-app", "frontend"))
	assert.Equal(t, "my-app-be", JobName("my-app", "backend"))
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h 30m"},
		{26 * time.Hour, "1d 2h"},
		{-time.Second, "0s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatUptime(tc.d))
	}
}
