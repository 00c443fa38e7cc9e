// Package demo runs the demo deployment commands: it synthesizes a plan from
// a selection, persists it and drives the container runtime.
// This is part of the Imperative Shell - the planning itself lives in
// core/deployment.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/core/ports"
	"github.com/conduitplatform/conduit-cli/internal/core/validation"
)

// ErrInvalidPlan is returned when a synthesized plan breaks an invariant.
var ErrInvalidPlan = errors.New("synthesized plan is invalid")

// DefaultPullConcurrency bounds parallel image pulls.
const DefaultPullConcurrency = 4

// PortAllocator hands out host ports near a preferred port.
type PortAllocator interface {
	Allocate(preferred, rangeSize int) (int, error)
}

// ContainerRuntime is the part of the container runtime synthesis needs.
type ContainerRuntime interface {
	CreateNetwork(ctx context.Context, name string) error
	Pull(ctx context.Context, image, tag string) error
}

// SynthesizerConfig tunes plan synthesis.
type SynthesizerConfig struct {
	NetworkName     string
	PortRangeSize   int
	PullConcurrency int
}

func (c SynthesizerConfig) withDefaults() SynthesizerConfig {
	if c.NetworkName == "" {
		c.NetworkName = deployment.NetworkName
	}
	if c.PortRangeSize < 1 {
		c.PortRangeSize = ports.DefaultRangeSize
	}
	if c.PullConcurrency < 1 {
		c.PullConcurrency = DefaultPullConcurrency
	}
	return c
}

// Synthesizer turns a selection into a wired, validated plan.
type Synthesizer struct {
	alloc   PortAllocator
	runtime ContainerRuntime
	cfg     SynthesizerConfig
	logger  *slog.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(alloc PortAllocator, runtime ContainerRuntime, cfg SynthesizerConfig, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		alloc:   alloc,
		runtime: runtime,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Synthesize builds the plan for sel:
//  1. create the demo network
//  2. expand and order the selection
//  3. allocate host ports and resolve each package
//  4. pull every image, waiting for all pulls to finish
//  5. cross-wire env and validate the result
//
// Any failure aborts the run; no partial plan is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, sel deployment.Selection) (deployment.Plan, error) {
	if sel.Engine == "" {
		sel = sel.WithEngine(deployment.EngineMongo)
	}

	if err := s.runtime.CreateNetwork(ctx, s.cfg.NetworkName); err != nil {
		return deployment.Plan{}, fmt.Errorf("create network %s: %w", s.cfg.NetworkName, err)
	}

	order := deployment.OrderForBringUp(sel.Expand())
	s.logger.Debug("synthesizing plan", "packages", order, "engine", sel.Engine)

	resolved, err := s.Resolve(sel, order)
	if err != nil {
		return deployment.Plan{}, err
	}

	if err := s.pullImages(ctx, resolved); err != nil {
		return deployment.Plan{}, err
	}

	wired, err := deployment.Wire(resolved)
	if err != nil {
		return deployment.Plan{}, fmt.Errorf("wire plan: %w", err)
	}

	if errs := validation.ValidatePlan(wired); len(errs) > 0 {
		return deployment.Plan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
	}
	return wired, nil
}

// Resolve allocates host ports for every package in order and resolves its
// image, tag, name and env. The returned plan is not wired yet.
func (s *Synthesizer) Resolve(sel deployment.Selection, order []catalog.PackageID) (deployment.Plan, error) {
	engine := sel.Engine
	if engine == "" {
		engine = deployment.EngineMongo
	}

	plan := deployment.Plan{
		NetworkName: s.cfg.NetworkName,
		Engine:      engine,
		Order:       append([]catalog.PackageID(nil), order...),
		Packages:    make(map[catalog.PackageID]deployment.ResolvedPackage, len(order)),
	}

	for _, id := range order {
		tmpl := catalog.Lookup(id)
		bindings := make([]deployment.PortBinding, 0, len(tmpl.Ports))
		for _, containerPort := range tmpl.Ports {
			host, err := s.alloc.Allocate(containerPort, s.cfg.PortRangeSize)
			if err != nil {
				return deployment.Plan{}, fmt.Errorf("allocate host port for %s:%d: %w", id, containerPort, err)
			}
			bindings = append(bindings, deployment.PortBinding{HostPort: host, ContainerPort: containerPort})
		}

		pkg, err := deployment.ResolvePackage(id, sel, bindings)
		if err != nil {
			return deployment.Plan{}, fmt.Errorf("resolve %s: %w", id, err)
		}
		plan.Packages[id] = pkg
	}
	return plan, nil
}

// pullImages pulls every image in the plan with bounded parallelism.
// The first failure cancels the remaining pulls.
func (s *Synthesizer) pullImages(ctx context.Context, plan deployment.Plan) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PullConcurrency)

	for _, id := range plan.Order {
		pkg := plan.Packages[id]
		g.Go(func() error {
			s.logger.Info("pulling image", "package", id, "image", pkg.ImageRef())
			if err := s.runtime.Pull(ctx, pkg.Image, pkg.Tag); err != nil {
				return fmt.Errorf("pull %s: %w", pkg.ImageRef(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
