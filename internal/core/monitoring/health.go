// Package monitoring turns container states of a demo deployment into an
// overall health verdict. Pure functions only; nothing here talks to Docker.
package monitoring

import "fmt"

// Health is the health of one container or of the whole demo.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

// ContainerHealth maps a container runtime status to a health value.
//
// A running container is healthy. Containers on their way up or paused are
// degraded. Anything stopped, dead or missing is unhealthy.
func ContainerHealth(status string) Health {
	switch status {
	case "running":
		return HealthHealthy
	case "created", "restarting", "paused":
		return HealthDegraded
	case "exited", "dead", "removing", "missing":
		return HealthUnhealthy
	default:
		return HealthUnknown
	}
}

// Aggregate determines overall demo health from container statuses.
func Aggregate(statuses []string) Health {
	if len(statuses) == 0 {
		return HealthUnknown
	}

	unhealthy := 0
	degraded := 0
	for _, s := range statuses {
		switch ContainerHealth(s) {
		case HealthUnhealthy:
			unhealthy++
		case HealthDegraded, HealthUnknown:
			// Unknown containers count as degraded
			degraded++
		}
	}

	if unhealthy == len(statuses) {
		return HealthUnhealthy
	}
	if unhealthy > 0 || degraded > 0 {
		return HealthDegraded
	}
	return HealthHealthy
}

// Summary is a one-line description such as "degraded (5/6 running)".
func Summary(statuses []string) string {
	running := 0
	for _, s := range statuses {
		if s == "running" {
			running++
		}
	}
	return fmt.Sprintf("%s (%d/%d running)", Aggregate(statuses), running, len(statuses))
}
