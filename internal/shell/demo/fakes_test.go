package demo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/shell/docker"
)

// =============================================================================
// Fake Collaborators
// =============================================================================

// offsetAllocator returns preferred+offset, or the configured error for a
// preferred port.
type offsetAllocator struct {
	mu     sync.Mutex
	offset int
	fail   map[int]error
	calls  [][2]int
}

func (a *offsetAllocator) Allocate(preferred, rangeSize int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, [2]int{preferred, rangeSize})
	if err, ok := a.fail[preferred]; ok {
		return 0, err
	}
	return preferred + a.offset, nil
}

type fakeRuntime struct {
	mu          sync.Mutex
	networks    []string
	pulls       []string
	failNetwork error
	failPull    map[string]error
	delay       time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (r *fakeRuntime) CreateNetwork(_ context.Context, name string) error {
	if r.failNetwork != nil {
		return r.failNetwork
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.networks = append(r.networks, name)
	return nil
}

func (r *fakeRuntime) Pull(ctx context.Context, image, tag string) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		cur := r.maxInFlight.Load()
		if n <= cur || r.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ref := deployment.ImageRef(image, tag)
	if err, ok := r.failPull[ref]; ok {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulls = append(r.pulls, ref)
	return nil
}

func (r *fakeRuntime) pulled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.pulls...)
	sort.Strings(out)
	return out
}

type fakeReleases struct {
	tags  map[string][]string
	err   error
	calls []string
}

func (f *fakeReleases) ListTags(_ context.Context, project string) ([]string, error) {
	f.calls = append(f.calls, project)
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[project], nil
}

type fakeDeployer struct {
	calls     []string
	startErr  error
	removeErr error
	lastPlan  deployment.Plan
}

func (d *fakeDeployer) StartPlan(_ context.Context, plan deployment.Plan) ([]docker.ContainerState, error) {
	d.calls = append(d.calls, "start")
	d.lastPlan = plan
	if d.startErr != nil {
		return nil, d.startErr
	}
	return statesFor(plan, docker.ContainerStatusRunning), nil
}

func (d *fakeDeployer) StopPlan(_ context.Context, plan deployment.Plan) error {
	d.calls = append(d.calls, "stop")
	d.lastPlan = plan
	return nil
}

func (d *fakeDeployer) RemovePlan(_ context.Context, plan deployment.Plan) error {
	d.calls = append(d.calls, "remove")
	d.lastPlan = plan
	return d.removeErr
}

func (d *fakeDeployer) Status(_ context.Context, plan deployment.Plan) ([]docker.ContainerState, error) {
	d.calls = append(d.calls, "status")
	d.lastPlan = plan
	return statesFor(plan, docker.ContainerStatusExited), nil
}

func statesFor(plan deployment.Plan, status docker.ContainerStatus) []docker.ContainerState {
	var out []docker.ContainerState
	for _, id := range plan.Order {
		pkg := plan.Packages[id]
		out = append(out, docker.ContainerState{
			Package: id,
			Name:    pkg.ContainerName,
			Image:   pkg.ImageRef(),
			Status:  status,
			Ports:   pkg.Ports,
		})
	}
	return out
}

var errBoom = errors.New("boom")
