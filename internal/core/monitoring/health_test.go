package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// ContainerHealth Tests
// =============================================================================

func TestContainerHealth(t *testing.T) {
	tests := []struct {
		status   string
		expected Health
	}{
		{"running", HealthHealthy},
		{"created", HealthDegraded},
		{"restarting", HealthDegraded},
		{"paused", HealthDegraded},
		{"exited", HealthUnhealthy},
		{"dead", HealthUnhealthy},
		{"missing", HealthUnhealthy},
		{"something-new", HealthUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainerHealth(tt.status))
		})
	}
}

// =============================================================================
// Aggregate Tests
// =============================================================================

func TestAggregate_AllHealthy(t *testing.T) {
	assert.Equal(t, HealthHealthy, Aggregate([]string{"running", "running"}))
}

func TestAggregate_OneUnhealthy(t *testing.T) {
	assert.Equal(t, HealthDegraded, Aggregate([]string{"running", "exited"}))
}

func TestAggregate_AllUnhealthy(t *testing.T) {
	assert.Equal(t, HealthUnhealthy, Aggregate([]string{"exited", "missing"}))
}

func TestAggregate_MixedStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected Health
	}{
		{"one restarting", []string{"running", "restarting"}, HealthDegraded},
		{"unknown counts as degraded", []string{"running", "??"}, HealthDegraded},
		{"degraded and unhealthy", []string{"paused", "dead"}, HealthDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.statuses))
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, HealthUnknown, Aggregate(nil))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "degraded (2/3 running)", Summary([]string{"running", "running", "exited"}))
	assert.Equal(t, "healthy (1/1 running)", Summary([]string{"running"}))
	assert.Equal(t, "unknown (0/0 running)", Summary(nil))
}
