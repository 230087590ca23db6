package portalloc

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/fred1357944/dev-orchestrator/internal/registry"
	orcherrors "github.com/fred1357944/dev-orchestrator/pkg/errors"
)

const defaultProbeTimeout = 1 * time.Second

// Prober reports whether something is already listening on localhost:port.
// The live probe is best-effort: a port can be grabbed by another process
// between the check and actual use. The allocation map stays the
// authoritative record of ports this system has promised.
type Prober func(port int, timeout time.Duration) bool

// dialProbe considers the port occupied when a TCP connect succeeds.
func dialProbe(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Allocator hands out ports from the registry's frontend and backend pools.
type Allocator struct {
	store        *registry.Store
	probe        Prober
	probeTimeout time.Duration
}

// NewAllocator creates an Allocator backed by the given store, using a live
// TCP connect probe for system occupancy checks.
func NewAllocator(store *registry.Store) *Allocator {
	return &Allocator{
		store:        store,
		probe:        dialProbe,
		probeTimeout: defaultProbeTimeout,
	}
}

// NewAllocatorWithProber creates an Allocator with a custom liveness probe.
// Intended for tests and callers that need to stub out system occupancy.
func NewAllocatorWithProber(store *registry.Store, probe Prober, timeout time.Duration) *Allocator {
	return &Allocator{store: store, probe: probe, probeTimeout: timeout}
}

// Ports is the outcome of an allocation request. Only the requested
// services carry a port.
type Ports struct {
	Frontend *int
	Backend  *int
}

// Allocate reserves a frontend and/or backend port for project. The
// frontend port is committed into the allocation map before the backend
// search runs so the two searches can never return the same port. On any
// failure every provisionally committed port is rolled back and nothing is
// persisted; on success the registry is saved once covering both grants.
func (a *Allocator) Allocate(project string, needFrontend, needBackend bool) (Ports, error) {
	var result Ports

	err := a.store.Mutate("allocate_ports", func(reg *registry.Registry) (bool, error) {
		var provisional []int
		rollback := func() {
			for _, port := range provisional {
				delete(reg.PortAllocation.Allocated, strconv.Itoa(port))
			}
		}

		if needFrontend {
			port, ok := a.findAvailable(reg, reg.PortAllocation.FrontendRange)
			if !ok {
				rollback()
				r := reg.PortAllocation.FrontendRange
				return false, orcherrors.NewPortExhaustedError("frontend", r.Start, r.End)
			}
			reg.PortAllocation.Allocated[strconv.Itoa(port)] = project
			provisional = append(provisional, port)
			result.Frontend = &port
		}

		if needBackend {
			port, ok := a.findAvailable(reg, reg.PortAllocation.BackendRange)
			if !ok {
				rollback()
				r := reg.PortAllocation.BackendRange
				return false, orcherrors.NewPortExhaustedError("backend", r.Start, r.End)
			}
			reg.PortAllocation.Allocated[strconv.Itoa(port)] = project
			provisional = append(provisional, port)
			result.Backend = &port
		}

		return len(provisional) > 0, nil
	})
	if err != nil {
		return Ports{}, err
	}
	return result, nil
}

// findAvailable scans the range in ascending order and returns the first
// port that is not reserved, not allocated, and not live on the system.
func (a *Allocator) findAvailable(reg *registry.Registry, r registry.PortRange) (int, bool) {
	for port := r.Start; port <= r.End; port++ {
		if r.IsReserved(port) {
			continue
		}
		if _, taken := reg.PortAllocation.Allocated[strconv.Itoa(port)]; taken {
			continue
		}
		if a.probe(port, a.probeTimeout) {
			continue
		}
		return port, true
	}
	return 0, false
}

// Release frees every port owned by project and returns the freed port
// numbers. The registry is persisted only when something was released.
func (a *Allocator) Release(project string) ([]int, error) {
	var released []int

	err := a.store.Mutate("release_ports", func(reg *registry.Registry) (bool, error) {
		for key, owner := range reg.PortAllocation.Allocated {
			if owner != project {
				continue
			}
			port, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			delete(reg.PortAllocation.Allocated, key)
			released = append(released, port)
		}
		return len(released) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// RangeStatus summarizes one pool for diagnostics.
type RangeStatus struct {
	Start         int
	End           int
	UsableSlots   int
	Allocated     []int
	NextAvailable *int
	Utilization   float64
}

// Status reports current pool usage across both ranges.
type Status struct {
	Frontend RangeStatus
	Backend  RangeStatus
}

// Status returns a read-only summary of port usage. It probes the system
// to determine the next available port per range.
func (a *Allocator) Status() Status {
	var st Status
	a.store.View(func(reg *registry.Registry) {
		st.Frontend = a.rangeStatus(reg, reg.PortAllocation.FrontendRange)
		st.Backend = a.rangeStatus(reg, reg.PortAllocation.BackendRange)
	})
	return st
}

func (a *Allocator) rangeStatus(reg *registry.Registry, r registry.PortRange) RangeStatus {
	st := RangeStatus{
		Start:       r.Start,
		End:         r.End,
		UsableSlots: r.UsableSlots(),
	}

	for key := range reg.PortAllocation.Allocated {
		port, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if r.Contains(port) {
			st.Allocated = append(st.Allocated, port)
		}
	}
	sort.Ints(st.Allocated)

	if port, ok := a.findAvailable(reg, r); ok {
		st.NextAvailable = &port
	}
	if st.UsableSlots > 0 {
		st.Utilization = float64(len(st.Allocated)) / float64(st.UsableSlots)
	}
	return st
}

// Validate checks whether port can be used for the given kind ("frontend",
// "backend", or "any"). Checks run in order: range membership, reservation,
// existing allocation, live occupancy. The first violation wins and is
// described in the returned reason.
func (a *Allocator) Validate(port int, kind string) (bool, string) {
	ok := true
	reason := "port is available"

	a.store.View(func(reg *registry.Registry) {
		fe := reg.PortAllocation.FrontendRange
		be := reg.PortAllocation.BackendRange

		switch kind {
		case "frontend":
			if !fe.Contains(port) {
				ok, reason = false, fmt.Sprintf("port %d is outside frontend range (%d-%d)", port, fe.Start, fe.End)
				return
			}
		case "backend":
			if !be.Contains(port) {
				ok, reason = false, fmt.Sprintf("port %d is outside backend range (%d-%d)", port, be.Start, be.End)
				return
			}
		}

		if fe.IsReserved(port) || be.IsReserved(port) {
			ok, reason = false, fmt.Sprintf("port %d is reserved", port)
			return
		}
		if owner := reg.PortAllocation.Owner(port); owner != "" {
			ok, reason = false, fmt.Sprintf("port %d is allocated to project '%s'", port, owner)
			return
		}
		if a.probe(port, a.probeTimeout) {
			ok, reason = false, fmt.Sprintf("port %d is currently in use by the system", port)
			return
		}
	})

	return ok, reason
}
