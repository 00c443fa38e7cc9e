package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
)

// stopTimeout is how long a container gets to shut down before it is killed.
const stopTimeout = 10 * time.Second

// =============================================================================
// Orchestrator - Manages Demo Lifecycle
// =============================================================================

// Orchestrator runs a persisted deployment plan using Docker.
type Orchestrator struct {
	docker Client
	logger *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(docker Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docker: docker,
		logger: logger,
	}
}

// ContainerState is the runtime state of one planned package.
type ContainerState struct {
	Package catalog.PackageID
	Name    string
	ID      string
	Image   string
	Status  ContainerStatus
	Ports   []deployment.PortBinding
}

// =============================================================================
// Start Plan
// =============================================================================

// StartPlan creates and starts every container of the plan in bring-up
// order. Existing containers with the planned name are started as they are.
// On failure, containers created by this call are removed again.
func (o *Orchestrator) StartPlan(ctx context.Context, plan deployment.Plan) ([]ContainerState, error) {
	if len(plan.Packages) == 0 {
		return nil, ErrNoPlan
	}
	containers := deployment.BuildContainerPlans(plan)
	if len(containers) != len(plan.Packages) {
		return nil, fmt.Errorf("%w: %d of %d packages ordered", ErrIncompletePlan, len(containers), len(plan.Packages))
	}
	o.logger.Info("starting demo", "network", plan.NetworkName, "packages", len(plan.Packages))

	if _, err := ensureNetwork(ctx, o.docker, o.logger, plan.NetworkName); err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}

	existing, err := o.existingByName(ctx, plan.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var (
		states  []ContainerState
		created []string
	)
	for _, cp := range containers {
		id := catalog.PackageID(cp.Labels[deployment.LabelPackage])

		containerID, isNew, err := o.createOrReuse(ctx, cp, existing)
		if err != nil {
			o.cleanupCreated(ctx, created)
			return nil, fmt.Errorf("failed to create container %s: %w", cp.Name, err)
		}
		if isNew {
			created = append(created, containerID)
		}

		if err := o.docker.StartContainer(ctx, containerID); err != nil {
			o.cleanupCreated(ctx, created)
			return nil, fmt.Errorf("failed to start container %s: %w", cp.Name, err)
		}
		o.logger.Debug("started container", "package", id, "container_id", shortID(containerID))

		states = append(states, ContainerState{
			Package: id,
			Name:    cp.Name,
			ID:      containerID,
			Image:   cp.Image,
			Status:  ContainerStatusRunning,
			Ports:   plan.Packages[id].Ports,
		})
	}

	o.logger.Info("demo started", "containers", len(states))
	return states, nil
}

// createOrReuse returns the container for cp, creating it when missing.
func (o *Orchestrator) createOrReuse(ctx context.Context, cp deployment.ContainerPlan, existing map[string]ContainerInfo) (string, bool, error) {
	if c, ok := existing[cp.Name]; ok {
		o.logger.Debug("using existing container", "name", cp.Name, "container_id", shortID(c.ID))
		return c.ID, false, nil
	}

	containerID, err := o.docker.CreateContainer(ctx, buildContainerSpec(cp))
	if err != nil {
		return "", false, err
	}
	o.logger.Debug("created container", "name", cp.Name, "container_id", shortID(containerID))
	return containerID, true, nil
}

// =============================================================================
// Stop Plan
// =============================================================================

// StopPlan stops every running container of the plan, dependents first.
// Failures are logged and the remaining containers are still stopped.
func (o *Orchestrator) StopPlan(ctx context.Context, plan deployment.Plan) error {
	o.logger.Info("stopping demo", "network", plan.NetworkName)

	timeout := stopTimeout
	stopped := 0
	for _, name := range reverseNames(plan) {
		info, err := o.docker.InspectContainer(ctx, name)
		if err != nil {
			if errors.Is(err, ErrContainerNotFound) {
				continue
			}
			o.logger.Warn("failed to inspect container", "name", name, "error", err)
			continue
		}
		if info.Status != ContainerStatusRunning {
			continue
		}
		if err := o.docker.StopContainer(ctx, info.ID, &timeout); err != nil {
			o.logger.Warn("failed to stop container", "name", name, "error", err)
			continue
		}
		stopped++
	}

	o.logger.Info("demo stopped", "containers_stopped", stopped)
	return nil
}

// =============================================================================
// Remove Plan
// =============================================================================

// RemovePlan removes every container of the plan, then the demo network.
// Containers labelled with the plan's network are removed too, so a demo
// whose plan changed since it was started is still cleaned up.
func (o *Orchestrator) RemovePlan(ctx context.Context, plan deployment.Plan) error {
	o.logger.Info("removing demo", "network", plan.NetworkName)

	existing, err := o.existingByName(ctx, plan.NetworkName)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	targets := reverseNames(plan)
	planned := make(map[string]bool, len(targets))
	for _, name := range targets {
		planned[name] = true
	}
	for name := range existing {
		if !planned[name] {
			targets = append(targets, name)
		}
	}

	var errs []error
	timeout := stopTimeout
	for _, name := range targets {
		if c, ok := existing[name]; ok && c.Status == ContainerStatusRunning {
			_ = o.docker.StopContainer(ctx, c.ID, &timeout)
		}
		err := o.docker.RemoveContainer(ctx, name, RemoveOptions{Force: true})
		switch {
		case err == nil:
			o.logger.Debug("removed container", "name", name)
		case errors.Is(err, ErrContainerNotFound):
		default:
			o.logger.Warn("failed to remove container", "name", name, "error", err)
			errs = append(errs, err)
		}
	}

	if err := o.docker.RemoveNetwork(ctx, plan.NetworkName); err != nil && !errors.Is(err, ErrNetworkNotFound) {
		o.logger.Warn("failed to remove network", "network", plan.NetworkName, "error", err)
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	o.logger.Info("demo removed", "network", plan.NetworkName)
	return nil
}

// =============================================================================
// Status
// =============================================================================

// Status reports the runtime state of every planned package in bring-up
// order. Containers that do not exist are reported as missing.
func (o *Orchestrator) Status(ctx context.Context, plan deployment.Plan) ([]ContainerState, error) {
	order := plan.BringUpOrder()
	states := make([]ContainerState, 0, len(order))
	for _, id := range order {
		pkg, ok := plan.Packages[id]
		if !ok {
			continue
		}
		state := ContainerState{
			Package: id,
			Name:    pkg.ContainerName,
			Image:   pkg.ImageRef(),
			Status:  ContainerStatusMissing,
			Ports:   pkg.Ports,
		}

		info, err := o.docker.InspectContainer(ctx, pkg.ContainerName)
		switch {
		case err == nil:
			state.ID = info.ID
			state.Status = info.Status
		case errors.Is(err, ErrContainerNotFound):
		default:
			return nil, fmt.Errorf("failed to inspect container %s: %w", pkg.ContainerName, err)
		}
		states = append(states, state)
	}
	return states, nil
}

// =============================================================================
// Helper Methods
// =============================================================================

// existingByName lists containers labelled with the demo network, keyed by name.
func (o *Orchestrator) existingByName(ctx context.Context, networkName string) (map[string]ContainerInfo, error) {
	containers, err := o.docker.ListContainers(ctx, ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", deployment.LabelNetwork, networkName),
		},
	})
	if err != nil {
		return nil, err
	}
	byName := make(map[string]ContainerInfo, len(containers))
	for _, c := range containers {
		byName[c.Name] = c
	}
	return byName, nil
}

// cleanupCreated removes containers created during a failed start.
func (o *Orchestrator) cleanupCreated(ctx context.Context, containerIDs []string) {
	timeout := 5 * time.Second
	for _, id := range containerIDs {
		_ = o.docker.StopContainer(ctx, id, &timeout)
		if err := o.docker.RemoveContainer(ctx, id, RemoveOptions{Force: true}); err != nil {
			o.logger.Warn("failed to clean up container", "container_id", shortID(id), "error", err)
		}
	}
}

// buildContainerSpec converts a planned container into a Docker spec.
func buildContainerSpec(cp deployment.ContainerPlan) ContainerSpec {
	spec := ContainerSpec{
		Name:          cp.Name,
		Image:         cp.Image,
		Env:           cp.Env,
		Labels:        cp.Labels,
		Networks:      cp.Networks,
		RestartPolicy: RestartPolicy{Name: cp.RestartPolicy.Name},
	}
	for _, p := range cp.Ports {
		spec.Ports = append(spec.Ports, PortBinding{
			ContainerPort: p.ContainerPort,
			HostPort:      p.HostPort,
			Protocol:      p.Protocol,
		})
	}
	return spec
}

// reverseNames returns the plan's container names, dependents first.
func reverseNames(plan deployment.Plan) []string {
	order := plan.BringUpOrder()
	names := make([]string, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		if pkg, ok := plan.Packages[order[i]]; ok {
			names = append(names, pkg.ContainerName)
		}
	}
	return names
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
