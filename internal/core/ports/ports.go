// Package ports contains pure host-port range arithmetic used by the
// port allocator. Nothing here touches the network.
package ports

import "errors"

// ErrNoPortAvailable is returned when every port in a range is taken.
var ErrNoPortAvailable = errors.New("no available ports in range")

// DefaultRangeSize is how many ports are tried for a preferred port:
// the literal port plus the next five.
const DefaultRangeSize = 6

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// PortRange is an inclusive range of host ports.
type PortRange struct {
	Start int
	End   int
}

// PreferredRange returns the range [preferred, preferred+size).
// The end is clamped to MaxPort; a non-positive size yields a single port.
func PreferredRange(preferred, size int) PortRange {
	if size < 1 {
		size = 1
	}
	end := preferred + size - 1
	if end > MaxPort {
		end = MaxPort
	}
	return PortRange{Start: preferred, End: end}
}

// Contains reports whether port lies inside the range.
func (r PortRange) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

// AllocatePort finds the first port in the range that is not used.
// Pure function - takes used ports as input, returns allocated port.
func AllocatePort(usedPorts []int, portRange PortRange) (int, error) {
	used := make(map[int]bool, len(usedPorts))
	for _, p := range usedPorts {
		used[p] = true
	}

	for port := portRange.Start; port <= portRange.End; port++ {
		if !used[port] {
			return port, nil
		}
	}

	return 0, ErrNoPortAvailable
}

// ValidatePort checks that port is a usable TCP port number.
func ValidatePort(port int) bool {
	return port > 0 && port <= MaxPort
}
