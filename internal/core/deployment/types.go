package deployment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Database Engine
// =============================================================================

// Engine is the database engine backing the generic Database module.
// Its value doubles as the connection URI scheme.
type Engine string

const (
	EngineMongo    Engine = "mongodb"
	EnginePostgres Engine = "postgresql"
)

// ParseEngine accepts the engine names a user is likely to type.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mongodb", "mongo":
		return EngineMongo, nil
	case "postgresql", "postgres":
		return EnginePostgres, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
}

// Backend returns the store backend package that provides the engine.
func (e Engine) Backend() catalog.PackageID {
	if e == EnginePostgres {
		return catalog.Postgres
	}
	return catalog.Mongo
}

// DisplayName returns the human readable engine name.
func (e Engine) DisplayName() string {
	if e == EnginePostgres {
		return "PostgreSQL"
	}
	return "MongoDB"
}

// =============================================================================
// Port Bindings
// =============================================================================

// PortBinding maps a host port to a container port.
// It encodes as "host:container" in the plan file.
type PortBinding struct {
	HostPort      int
	ContainerPort int
}

// String returns the "host:container" form.
func (b PortBinding) String() string {
	return fmt.Sprintf("%d:%d", b.HostPort, b.ContainerPort)
}

// ParsePortBinding parses the "host:container" form.
func ParsePortBinding(s string) (PortBinding, error) {
	host, container, ok := strings.Cut(s, ":")
	if !ok {
		return PortBinding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, s)
	}
	h, err := strconv.Atoi(host)
	if err != nil {
		return PortBinding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, s)
	}
	c, err := strconv.Atoi(container)
	if err != nil {
		return PortBinding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, s)
	}
	return PortBinding{HostPort: h, ContainerPort: c}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (b PortBinding) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *PortBinding) UnmarshalText(text []byte) error {
	parsed, err := ParsePortBinding(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// =============================================================================
// Resolved Packages and Plans
// =============================================================================

// ResolvedPackage is a package with its image, name, env and host bindings
// fixed. Ports keep the catalog template's order.
type ResolvedPackage struct {
	Image         string            `json:"image"`
	Tag           string            `json:"tag"`
	ContainerName string            `json:"containerName"`
	Env           map[string]string `json:"env"`
	Ports         []PortBinding     `json:"ports"`
}

// ImageRef returns "image:tag".
func (p ResolvedPackage) ImageRef() string {
	return ImageRef(p.Image, p.Tag)
}

// clone returns a deep copy so wiring never writes through to its input.
func (p ResolvedPackage) clone() ResolvedPackage {
	env := make(map[string]string, len(p.Env))
	for k, v := range p.Env {
		env[k] = v
	}
	ports := make([]PortBinding, len(p.Ports))
	copy(ports, p.Ports)
	p.Env = env
	p.Ports = ports
	return p
}

// Plan is the fully resolved description of a demo deployment.
// It is the document persisted by the plan store and read back by the
// start, status, export and cleanup commands.
type Plan struct {
	NetworkName string                                `json:"networkName"`
	Engine      Engine                                `json:"engine"`
	Order       []catalog.PackageID                   `json:"order"`
	Packages    map[catalog.PackageID]ResolvedPackage `json:"packages"`
}

// Package returns the resolved package for id.
func (p Plan) Package(id catalog.PackageID) (ResolvedPackage, bool) {
	pkg, ok := p.Packages[id]
	return pkg, ok
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := Plan{
		NetworkName: p.NetworkName,
		Engine:      p.Engine,
		Order:       append([]catalog.PackageID(nil), p.Order...),
		Packages:    make(map[catalog.PackageID]ResolvedPackage, len(p.Packages)),
	}
	for id, pkg := range p.Packages {
		out.Packages[id] = pkg.clone()
	}
	return out
}

// =============================================================================
// Container Plan Types
// =============================================================================

// ContainerPlan represents a planned container configuration.
// This is the pure output of planning, ready for the shell to execute.
type ContainerPlan struct {
	Name          string
	Image         string
	Env           map[string]string
	Labels        map[string]string
	Ports         []PortPlan
	Networks      []string
	RestartPolicy RestartPolicyPlan
}

// PortPlan represents a planned port binding.
type PortPlan struct {
	ContainerPort int
	HostPort      int
	Protocol      string
}

// RestartPolicyPlan represents a restart policy.
type RestartPolicyPlan struct {
	Name string
}

// =============================================================================
// Container Labels
// =============================================================================

// Label keys used to identify demo containers.
const (
	LabelManaged = "com.conduit.managed"
	LabelPackage = "com.conduit.package"
	LabelNetwork = "com.conduit.network"
)
