package portalloc

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fred1357944/dev-orchestrator/internal/registry"
	orcherrors "github.com/fred1357944/dev-orchestrator/pkg/errors"
)

func newTestAllocator(t *testing.T, busy map[int]bool) (*Allocator, *registry.Store) {
	t.Helper()
	store, err := registry.NewStore(t.TempDir())
	require.NoError(t, err)

	a := NewAllocator(store)
	a.probe = func(port int, _ time.Duration) bool {
		return busy[port]
	}
	return a, store
}

func setRanges(t *testing.T, store *registry.Store, fe, be registry.PortRange) {
	t.Helper()
	err := store.Mutate("test_setup", func(reg *registry.Registry) (bool, error) {
		reg.PortAllocation.FrontendRange = fe
		reg.PortAllocation.BackendRange = be
		return true, nil
	})
	require.NoError(t, err)
}

func allocatedPorts(store *registry.Store) map[string]string {
	out := map[string]string{}
	store.View(func(reg *registry.Registry) {
		for k, v := range reg.PortAllocation.Allocated {
			out[k] = v
		}
	})
	return out
}

func TestAllocateFirstFreePort(t *testing.T) {
	a, store := newTestAllocator(t, nil)

	ports, err := a.Allocate("my-app", true, true)
	require.NoError(t, err)
	require.NotNil(t, ports.Frontend)
	require.NotNil(t, ports.Backend)

	// 3000 is reserved by default, so the first frontend slot is 3001.
	assert.Equal(t, 3001, *ports.Frontend)
	assert.Equal(t, 8000, *ports.Backend)

	alloc := allocatedPorts(store)
	assert.Equal(t, "my-app", alloc["3001"])
	assert.Equal(t, "my-app", alloc["8000"])
}

func TestAllocateSkipsReservedAllocatedAndLive(t *testing.T) {
	a, store := newTestAllocator(t, map[int]bool{8001: true})
	setRanges(t, store,
		registry.PortRange{Start: 3000, End: 3010, Reserved: []int{3000}},
		registry.PortRange{Start: 8000, End: 8010, Reserved: []int{8000}},
	)
	require.NoError(t, store.Mutate("test_setup", func(reg *registry.Registry) (bool, error) {
		reg.PortAllocation.Allocated["3001"] = "other"
		return true, nil
	}))

	ports, err := a.Allocate("my-app", true, true)
	require.NoError(t, err)
	assert.Equal(t, 3002, *ports.Frontend) // 3000 reserved, 3001 allocated
	assert.Equal(t, 8002, *ports.Backend)  // 8000 reserved, 8001 live
}

func TestAllocateSequentialProjects(t *testing.T) {
	a, _ := newTestAllocator(t, nil)

	first, err := a.Allocate("app-one", true, true)
	require.NoError(t, err)
	second, err := a.Allocate("app-two", true, true)
	require.NoError(t, err)

	assert.NotEqual(t, *first.Frontend, *second.Frontend)
	assert.NotEqual(t, *first.Backend, *second.Backend)
	assert.Equal(t, *first.Frontend+1, *second.Frontend)
	assert.Equal(t, *first.Backend+1, *second.Backend)
}

func TestAllocateExhaustionRollsBack(t *testing.T) {
	a, store := newTestAllocator(t, nil)
	setRanges(t, store,
		registry.PortRange{Start: 3000, End: 3001, Reserved: nil},
		registry.PortRange{Start: 8000, End: 8000, Reserved: []int{8000}},
	)

	before := allocatedPorts(store)

	// Backend range has zero usable slots, so the frontend grant must be
	// rolled back and nothing persisted.
	_, err := a.Allocate("my-app", true, true)
	var exhausted *orcherrors.PortExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "backend", exhausted.Kind)

	assert.Equal(t, before, allocatedPorts(store))

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "failed allocation must not persist the registry")
}

func TestAllocateExhaustionAfterFillingRange(t *testing.T) {
	a, store := newTestAllocator(t, nil)
	setRanges(t, store,
		registry.PortRange{Start: 3000, End: 3010, Reserved: nil},
		registry.PortRange{Start: 8000, End: 8010, Reserved: nil},
	)

	for i := 0; i < 11; i++ {
		_, err := a.Allocate("filler", false, true)
		require.NoError(t, err)
	}

	before := allocatedPorts(store)
	_, err := a.Allocate("one-more", false, true)
	var exhausted *orcherrors.PortExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, before, allocatedPorts(store))
}

func TestReleaseOnlyOwnedPorts(t *testing.T) {
	a, store := newTestAllocator(t, nil)

	_, err := a.Allocate("app-one", true, true)
	require.NoError(t, err)
	_, err = a.Allocate("app-two", true, true)
	require.NoError(t, err)

	released, err := a.Release("app-one")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{3001, 8000}, released)

	alloc := allocatedPorts(store)
	assert.Len(t, alloc, 2)
	assert.Equal(t, "app-two", alloc["3002"])
	assert.Equal(t, "app-two", alloc["8001"])
}

func TestAllocateThenReleaseRestoresMap(t *testing.T) {
	a, store := newTestAllocator(t, nil)
	before := allocatedPorts(store)

	_, err := a.Allocate("my-app", true, true)
	require.NoError(t, err)
	_, err = a.Release("my-app")
	require.NoError(t, err)

	assert.Equal(t, before, allocatedPorts(store))
}

func TestReleaseUnknownProjectDoesNotSave(t *testing.T) {
	a, store := newTestAllocator(t, nil)

	released, err := a.Release("ghost")
	require.NoError(t, err)
	assert.Empty(t, released)

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStatus(t *testing.T) {
	a, store := newTestAllocator(t, nil)
	setRanges(t, store,
		registry.PortRange{Start: 3000, End: 3009, Reserved: []int{3000}},
		registry.PortRange{Start: 8000, End: 8009, Reserved: nil},
	)

	_, err := a.Allocate("my-app", true, true)
	require.NoError(t, err)

	st := a.Status()
	assert.Equal(t, 9, st.Frontend.UsableSlots)
	assert.Equal(t, []int{3001}, st.Frontend.Allocated)
	require.NotNil(t, st.Frontend.NextAvailable)
	assert.Equal(t, 3002, *st.Frontend.NextAvailable)
	assert.InDelta(t, 1.0/9.0, st.Frontend.Utilization, 1e-9)

	assert.Equal(t, 10, st.Backend.UsableSlots)
	assert.Equal(t, []int{8000}, st.Backend.Allocated)
	require.NotNil(t, st.Backend.NextAvailable)
	assert.Equal(t, 8001, *st.Backend.NextAvailable)
}

func TestValidate(t *testing.T) {
	a, store := newTestAllocator(t, map[int]bool{3004: true})
	setRanges(t, store,
		registry.PortRange{Start: 3000, End: 3010, Reserved: []int{3000}},
		registry.PortRange{Start: 8000, End: 8010, Reserved: nil},
	)
	require.NoError(t, store.Mutate("test_setup", func(reg *registry.Registry) (bool, error) {
		reg.PortAllocation.Allocated["3002"] = "other"
		return true, nil
	}))

	cases := []struct {
		name   string
		port   int
		kind   string
		ok     bool
		reason string
	}{
		{"out of frontend range", 2999, "frontend", false, "outside frontend range"},
		{"out of backend range", 3001, "backend", false, "outside backend range"},
		{"reserved", 3000, "frontend", false, "reserved"},
		{"allocated", 3002, "frontend", false, "allocated to project 'other'"},
		{"live", 3004, "frontend", false, "in use by the system"},
		{"available", 3003, "frontend", true, "available"},
		{"any kind skips range check", 2999, "any", true, "available"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := a.Validate(tc.port, tc.kind)
			assert.Equal(t, tc.ok, ok)
			assert.Contains(t, reason, tc.reason)
		})
	}
}
