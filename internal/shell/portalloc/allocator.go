// Package portalloc hands out host ports for demo containers by probing the
// local host.
package portalloc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/conduitplatform/conduit-cli/internal/core/ports"
)

// ErrNoFreePort is returned when neither the preferred range nor the kernel
// can provide a port.
var ErrNoFreePort = errors.New("no free host port")

// ProbeFunc reports whether a TCP port can currently be bound on the host.
type ProbeFunc func(port int) bool

// ListenProbe binds the port on all interfaces and releases it immediately.
func ListenProbe(port int) bool {
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// EphemeralFunc asks the host for any free port.
type EphemeralFunc func() (int, error)

// KernelPort lets the kernel pick a free port.
func KernelPort() (int, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Allocator hands out host ports. Ports it has handed out are never handed
// out again by the same Allocator, even if they are still free on the host.
type Allocator struct {
	mu        sync.Mutex
	claimed   map[int]bool
	probe     ProbeFunc
	ephemeral EphemeralFunc
	logger    *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithProbe replaces the host probe.
func WithProbe(probe ProbeFunc) Option {
	return func(a *Allocator) { a.probe = probe }
}

// WithEphemeral replaces the fallback port source.
func WithEphemeral(fn EphemeralFunc) Option {
	return func(a *Allocator) { a.ephemeral = fn }
}

// New creates an Allocator that probes the local host.
func New(logger *slog.Logger, opts ...Option) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Allocator{
		claimed:   make(map[int]bool),
		probe:     ListenProbe,
		ephemeral: KernelPort,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns the first port in [preferred, preferred+rangeSize) that
// is free on the host and not yet claimed. When the whole range is taken it
// falls back to a kernel-assigned port.
func (a *Allocator) Allocate(preferred, rangeSize int) (int, error) {
	if !ports.ValidatePort(preferred) {
		return 0, fmt.Errorf("invalid preferred port %d", preferred)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	portRange := ports.PreferredRange(preferred, rangeSize)
	used := a.unavailable(portRange)

	port, err := ports.AllocatePort(used, portRange)
	if err == nil {
		a.claimed[port] = true
		if port != preferred {
			a.logger.Debug("preferred port taken", "preferred", preferred, "allocated", port)
		}
		return port, nil
	}

	// The kernel may hand back a port we already claimed but have not bound.
	for attempt := 0; attempt < 16; attempt++ {
		port, kerr := a.ephemeral()
		if kerr != nil {
			return 0, fmt.Errorf("%w: range %d-%d exhausted: %v", ErrNoFreePort, portRange.Start, portRange.End, kerr)
		}
		if !a.claimed[port] {
			a.claimed[port] = true
			a.logger.Debug("preferred range exhausted, using kernel port",
				"preferred", preferred, "allocated", port)
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w: range %d-%d exhausted", ErrNoFreePort, portRange.Start, portRange.End)
}

// unavailable lists ports in the range that are claimed or busy on the host.
func (a *Allocator) unavailable(r ports.PortRange) []int {
	var used []int
	for p := r.Start; p <= r.End; p++ {
		if a.claimed[p] || !a.probe(p) {
			used = append(used, p)
		}
	}
	return used
}
