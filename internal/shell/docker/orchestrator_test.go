package docker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fake Docker Client
// =============================================================================

type fakeContainer struct {
	spec   ContainerSpec
	id     string
	status ContainerStatus
}

// fakeClient is an in-memory Client. Containers are addressable by ID or name.
type fakeClient struct {
	mu         sync.Mutex
	containers map[string]*fakeContainer // by name
	networks   map[string]bool
	pulled     []string
	calls      []string
	nextID     int

	failCreate string // container name
	failStart  string // container name
	failPull   string // image ref
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		containers: map[string]*fakeContainer{},
		networks:   map[string]bool{},
	}
}

func (f *fakeClient) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeClient) lookup(ref string) *fakeContainer {
	if c, ok := f.containers[ref]; ok {
		return c
	}
	for _, c := range f.containers {
		if c.id == ref {
			return c
		}
	}
	return nil
}

func (f *fakeClient) CreateContainer(_ context.Context, spec ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create " + spec.Name)
	if spec.Name == f.failCreate {
		return "", NewDockerError("CreateContainer", "container", spec.Name, "boom", errors.New("boom"))
	}
	if _, ok := f.containers[spec.Name]; ok {
		return "", NewDockerError("CreateContainer", "container", spec.Name, "container already exists", ErrContainerAlreadyExists)
	}
	f.nextID++
	id := fmt.Sprintf("%064d", f.nextID)
	f.containers[spec.Name] = &fakeContainer{spec: spec, id: id, status: ContainerStatusCreated}
	return id, nil
}

func (f *fakeClient) StartContainer(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(ref)
	if c == nil {
		return NewDockerError("StartContainer", "container", ref, "container not found", ErrContainerNotFound)
	}
	f.record("start " + c.spec.Name)
	if c.spec.Name == f.failStart {
		return NewDockerError("StartContainer", "container", ref, "port is already allocated", ErrPortAlreadyAllocated)
	}
	c.status = ContainerStatusRunning
	return nil
}

func (f *fakeClient) StopContainer(_ context.Context, ref string, _ *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(ref)
	if c == nil {
		return NewDockerError("StopContainer", "container", ref, "container not found", ErrContainerNotFound)
	}
	f.record("stop " + c.spec.Name)
	c.status = ContainerStatusExited
	return nil
}

func (f *fakeClient) RemoveContainer(_ context.Context, ref string, _ RemoveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(ref)
	if c == nil {
		return NewDockerError("RemoveContainer", "container", ref, "container not found", ErrContainerNotFound)
	}
	f.record("remove " + c.spec.Name)
	delete(f.containers, c.spec.Name)
	return nil
}

func (f *fakeClient) InspectContainer(_ context.Context, ref string) (*ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(ref)
	if c == nil {
		return nil, NewDockerError("InspectContainer", "container", ref, "container not found", ErrContainerNotFound)
	}
	return &ContainerInfo{ID: c.id, Name: c.spec.Name, Image: c.spec.Image, Status: c.status, Labels: c.spec.Labels}, nil
}

func (f *fakeClient) ListContainers(_ context.Context, opts ListOptions) ([]ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ContainerInfo
	for _, c := range f.containers {
		if want, ok := opts.Filters["label"]; ok {
			match := false
			for k, v := range c.spec.Labels {
				if k+"="+v == want {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, ContainerInfo{ID: c.id, Name: c.spec.Name, Image: c.spec.Image, Status: c.status, Labels: c.spec.Labels})
	}
	return out, nil
}

func (f *fakeClient) CreateNetwork(_ context.Context, spec NetworkSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("network create " + spec.Name)
	if f.networks[spec.Name] {
		return "", NewDockerError("CreateNetwork", "network", spec.Name, "network already exists", ErrNetworkAlreadyExists)
	}
	f.networks[spec.Name] = true
	return "net-" + spec.Name, nil
}

func (f *fakeClient) NetworkExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.networks[name], nil
}

func (f *fakeClient) RemoveNetwork(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.networks[name] {
		return NewDockerError("RemoveNetwork", "network", name, "network not found", ErrNetworkNotFound)
	}
	f.record("network remove " + name)
	delete(f.networks, name)
	return nil
}

func (f *fakeClient) PullImage(_ context.Context, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if image == f.failPull {
		return NewDockerError("PullImage", "image", image, "image not found", ErrImageNotFound)
	}
	f.pulled = append(f.pulled, image)
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }
func (f *fakeClient) Close() error               { return nil }

var _ Client = (*fakeClient)(nil)

// =============================================================================
// Test Fixtures
// =============================================================================

func testPlan(t *testing.T) deployment.Plan {
	t.Helper()
	sel := deployment.DefaultSelection("v0.16.0", "v0.16.0")
	order := deployment.OrderForBringUp(sel.Expand())
	plan := deployment.Plan{
		NetworkName: deployment.NetworkName,
		Engine:      sel.Engine,
		Order:       order,
		Packages:    map[catalog.PackageID]deployment.ResolvedPackage{},
	}
	for _, id := range order {
		var bindings []deployment.PortBinding
		for _, p := range catalog.Lookup(id).Ports {
			bindings = append(bindings, deployment.PortBinding{HostPort: p, ContainerPort: p})
		}
		pkg, err := deployment.ResolvePackage(id, sel, bindings)
		require.NoError(t, err)
		plan.Packages[id] = pkg
	}
	wired, err := deployment.Wire(plan)
	require.NoError(t, err)
	return wired
}

func startCalls(calls []string) []string {
	var out []string
	for _, c := range calls {
		if len(c) > 6 && c[:6] == "start " {
			out = append(out, c[6:])
		}
	}
	return out
}

// =============================================================================
// StartPlan Tests
// =============================================================================

func TestStartPlan_StartsInBringUpOrder(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	states, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, states, len(plan.Order))

	var want []string
	for _, id := range plan.Order {
		want = append(want, plan.Packages[id].ContainerName)
	}
	assert.Equal(t, want, startCalls(fake.calls))
	assert.True(t, fake.networks[deployment.NetworkName])

	core := fake.containers["conduit-core"]
	require.NotNil(t, core)
	assert.Equal(t, "true", core.spec.Labels[deployment.LabelManaged])
	assert.Equal(t, string(catalog.Core), core.spec.Labels[deployment.LabelPackage])
	assert.Equal(t, "3000", core.spec.Env[catalog.EnvPort])
	assert.Equal(t, []string{deployment.NetworkName}, core.spec.Networks)
	assert.Len(t, core.spec.Ports, 3)
}

func TestStartPlan_ReusesExistingContainers(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	_, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)
	require.NoError(t, o.StopPlan(context.Background(), plan))

	fake.calls = nil
	_, err = o.StartPlan(context.Background(), plan)
	require.NoError(t, err)

	for _, c := range fake.calls {
		assert.NotContains(t, c, "create ")
	}
	assert.Equal(t, ContainerStatusRunning, fake.containers["conduit-ui"].status)
}

func TestStartPlan_CleansUpOnFailure(t *testing.T) {
	fake := newFakeClient()
	fake.failStart = "conduit-ui"
	o := NewOrchestrator(fake, nil)

	_, err := o.StartPlan(context.Background(), testPlan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPortAlreadyAllocated)
	assert.Empty(t, fake.containers)
}

func TestStartPlan_WithoutOrder(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)
	want := plan.Order
	plan.Order = nil

	states, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, states, len(plan.Packages))

	var names []string
	for _, id := range want {
		names = append(names, plan.Packages[id].ContainerName)
	}
	assert.Equal(t, names, startCalls(fake.calls))
}

func TestStartPlan_OrderMissingPackage(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)
	plan.Order = plan.Order[:1]

	_, err := o.StartPlan(context.Background(), plan)
	assert.ErrorIs(t, err, ErrIncompletePlan)
	assert.Empty(t, fake.containers)
}

func TestStartPlan_EmptyPlan(t *testing.T) {
	o := NewOrchestrator(newFakeClient(), nil)

	_, err := o.StartPlan(context.Background(), deployment.Plan{})
	assert.ErrorIs(t, err, ErrNoPlan)
}

// =============================================================================
// Status Tests
// =============================================================================

func TestStatus_ReportsMissingAndRunning(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	states, err := o.Status(context.Background(), plan)
	require.NoError(t, err)
	for _, s := range states {
		assert.Equal(t, ContainerStatusMissing, s.Status)
	}

	_, err = o.StartPlan(context.Background(), plan)
	require.NoError(t, err)

	states, err = o.Status(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, states, len(plan.Order))
	assert.Equal(t, plan.Order[0], states[0].Package)
	for _, s := range states {
		assert.Equal(t, ContainerStatusRunning, s.Status, s.Name)
		assert.NotEmpty(t, s.ID)
	}
}

// =============================================================================
// StopPlan / RemovePlan Tests
// =============================================================================

func TestStopPlan_StopsDependentsFirst(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	_, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)
	fake.calls = nil

	require.NoError(t, o.StopPlan(context.Background(), plan))

	last := plan.Packages[plan.Order[len(plan.Order)-1]].ContainerName
	first := plan.Packages[plan.Order[0]].ContainerName
	assert.Equal(t, "stop "+last, fake.calls[0])
	assert.Equal(t, "stop "+first, fake.calls[len(fake.calls)-1])
}

func TestRemovePlan_RemovesContainersThenNetwork(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	_, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)

	require.NoError(t, o.RemovePlan(context.Background(), plan))
	assert.Empty(t, fake.containers)
	assert.False(t, fake.networks[deployment.NetworkName])
	assert.Equal(t, "network remove "+deployment.NetworkName, fake.calls[len(fake.calls)-1])
}

func TestRemovePlan_RemovesStrayLabelledContainers(t *testing.T) {
	fake := newFakeClient()
	o := NewOrchestrator(fake, nil)
	plan := testPlan(t)

	_, err := o.StartPlan(context.Background(), plan)
	require.NoError(t, err)

	// A module that was part of an earlier plan.
	_, err = fake.CreateContainer(context.Background(), ContainerSpec{
		Name:   "conduit-chat",
		Labels: map[string]string{deployment.LabelNetwork: deployment.NetworkName},
	})
	require.NoError(t, err)

	require.NoError(t, o.RemovePlan(context.Background(), plan))
	assert.Empty(t, fake.containers)
}

func TestRemovePlan_NothingToRemove(t *testing.T) {
	o := NewOrchestrator(newFakeClient(), nil)
	assert.NoError(t, o.RemovePlan(context.Background(), testPlan(t)))
}

// =============================================================================
// Runtime Tests
// =============================================================================

func TestRuntime_CreateNetworkReusesExisting(t *testing.T) {
	fake := newFakeClient()
	r := NewRuntime(fake, nil)

	require.NoError(t, r.CreateNetwork(context.Background(), "conduit-demo"))
	require.NoError(t, r.CreateNetwork(context.Background(), "conduit-demo"))

	assert.Equal(t, []string{"network create conduit-demo"}, fake.calls)
}

func TestRuntime_Pull(t *testing.T) {
	fake := newFakeClient()
	fake.failPull = "conduitplatform/conduit:v0"
	r := NewRuntime(fake, nil)

	require.NoError(t, r.Pull(context.Background(), "redis", "latest"))
	assert.Equal(t, []string{"redis:latest"}, fake.pulled)

	err := r.Pull(context.Background(), "conduitplatform/conduit", "v0")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestBuildContainerSpec(t *testing.T) {
	plan := testPlan(t)
	cp := deployment.BuildContainerPlan(catalog.UI, plan.Packages[catalog.UI], plan.NetworkName)

	spec := buildContainerSpec(cp)
	assert.Equal(t, "conduit-ui", spec.Name)
	assert.Equal(t, "conduitplatform/conduit-ui:v0.16.0", spec.Image)
	assert.Equal(t, "no", spec.RestartPolicy.Name)
	assert.Equal(t, []PortBinding{{ContainerPort: 8080, HostPort: 8080, Protocol: "tcp"}}, spec.Ports)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
}
