package docker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
)

// =============================================================================
// Runtime - Synthesis-time Container Runtime
// =============================================================================

// Runtime is the part of the container runtime used while a plan is being
// synthesized: it prepares the demo network and pulls images.
type Runtime struct {
	docker Client
	logger *slog.Logger
}

// NewRuntime creates a new Runtime.
func NewRuntime(docker Client, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{docker: docker, logger: logger}
}

// CreateNetwork creates the named bridge network, reusing it if it already
// exists.
func (r *Runtime) CreateNetwork(ctx context.Context, name string) error {
	_, err := ensureNetwork(ctx, r.docker, r.logger, name)
	return err
}

// Pull pulls image:tag from its registry.
func (r *Runtime) Pull(ctx context.Context, image, tag string) error {
	ref := deployment.ImageRef(image, tag)
	r.logger.Info("pulling image", "image", ref)
	if err := r.docker.PullImage(ctx, ref); err != nil {
		return err
	}
	r.logger.Debug("pulled image", "image", ref)
	return nil
}

// ensureNetwork creates a labelled demo network or returns the existing one.
func ensureNetwork(ctx context.Context, docker Client, logger *slog.Logger, name string) (string, error) {
	exists, err := docker.NetworkExists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		logger.Debug("network already exists, reusing", "network_name", name)
		return name, nil
	}

	networkID, err := docker.CreateNetwork(ctx, NetworkSpec{
		Name:   name,
		Driver: "bridge",
		Labels: map[string]string{
			deployment.LabelManaged: "true",
			deployment.LabelNetwork: name,
		},
	})
	if err != nil {
		// Lost a race with another creator; Docker accepts the name as ID.
		if errors.Is(err, ErrNetworkAlreadyExists) {
			return name, nil
		}
		return "", err
	}
	logger.Debug("created network", "network_id", networkID, "network_name", name)
	return networkID, nil
}
