package store

import (
	"context"
	"time"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
)

// =============================================================================
// Store Interfaces
// =============================================================================

// PlanStore persists the single demo deployment plan handed from setup to
// the start, status, export and cleanup commands.
type PlanStore interface {
	Save(ctx context.Context, plan deployment.Plan) error
	Load(ctx context.Context) (deployment.Plan, error)
	Exists(ctx context.Context) (bool, error)
	Delete(ctx context.Context) error
}

// HistoryStore records every successful setup.
type HistoryStore interface {
	RecordSetup(ctx context.Context, record *SetupRecord) error
	GetSetup(ctx context.Context, id string) (*SetupRecord, error)
	ListSetups(ctx context.Context, opts ListOptions) ([]SetupRecord, error)
	Close() error
}

// SetupRecord is one completed setup.
type SetupRecord struct {
	ID         string
	CreatedAt  time.Time
	Engine     deployment.Engine
	ConduitTag string
	UITag      string
	Packages   []catalog.PackageID
	Plan       deployment.Plan
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  20,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
