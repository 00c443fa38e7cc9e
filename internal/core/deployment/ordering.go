package deployment

import "github.com/conduitplatform/conduit-cli/internal/core/catalog"

// =============================================================================
// Package Ordering Functions
// =============================================================================

// OrderForBringUp moves store backends (Redis, Mongo, Postgres) in front of
// every other package. The partition is stable: backends keep their relative
// order, and so does everything else.
//
// Store backends go first because dependents read their resolved ports while
// being wired, and the runtime has to start them before anything else.
//
// Example:
//
//	OrderForBringUp([]catalog.PackageID{Core, UI, Database, Redis, Mongo})
//	// Result: [Redis, Mongo, Core, UI, Database]
func OrderForBringUp(ids []catalog.PackageID) []catalog.PackageID {
	result := make([]catalog.PackageID, 0, len(ids))
	for _, id := range ids {
		if catalog.IsStoreBackend(id) {
			result = append(result, id)
		}
	}
	for _, id := range ids {
		if !catalog.IsStoreBackend(id) {
			result = append(result, id)
		}
	}
	return result
}

// BringUpOrder returns p.Order. A plan stored without an order gets its
// packages in catalog order with store backends moved to the front.
func (p Plan) BringUpOrder() []catalog.PackageID {
	if len(p.Order) > 0 {
		return p.Order
	}
	ids := make([]catalog.PackageID, 0, len(p.Packages))
	for _, id := range catalog.All() {
		if _, ok := p.Packages[id]; ok {
			ids = append(ids, id)
		}
	}
	return OrderForBringUp(ids)
}
