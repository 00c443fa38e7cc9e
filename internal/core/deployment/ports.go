package deployment

import (
	"fmt"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Core Port Slots
// =============================================================================

// CorePorts names Core's bindings. The catalog lists Core's container ports
// as gRPC, HTTP, sockets; this record is the only place that knows the
// positions.
type CorePorts struct {
	RPC    PortBinding
	HTTP   PortBinding
	Socket PortBinding
}

const (
	coreRPCIndex = iota
	coreHTTPIndex
	coreSocketIndex
	corePortCount
)

// NewCorePorts builds the named record from Core's ordered bindings.
func NewCorePorts(bindings []PortBinding) (CorePorts, error) {
	if len(bindings) != corePortCount {
		return CorePorts{}, fmt.Errorf("%w: %s has %d bindings, want %d",
			ErrBindingMismatch, catalog.Core, len(bindings), corePortCount)
	}
	return CorePorts{
		RPC:    bindings[coreRPCIndex],
		HTTP:   bindings[coreHTTPIndex],
		Socket: bindings[coreSocketIndex],
	}, nil
}
