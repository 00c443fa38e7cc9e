package deployment

import (
	"testing"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// OrderForBringUp Tests
// =============================================================================

func TestOrderForBringUp_Empty(t *testing.T) {
	assert.Empty(t, OrderForBringUp(nil))
}

func TestOrderForBringUp_DefaultSelection(t *testing.T) {
	ids := DefaultSelection("v1", "v1").Expand()
	got := OrderForBringUp(ids)
	assert.Equal(t, []catalog.PackageID{
		catalog.Redis, catalog.Mongo,
		catalog.Core, catalog.UI, catalog.Database, catalog.Authentication,
	}, got)
}

func TestOrderForBringUp_IsStable(t *testing.T) {
	ids := []catalog.PackageID{
		catalog.Chat, catalog.Postgres, catalog.Core, catalog.Redis, catalog.Email,
	}
	got := OrderForBringUp(ids)
	assert.Equal(t, []catalog.PackageID{
		catalog.Postgres, catalog.Redis, catalog.Chat, catalog.Core, catalog.Email,
	}, got)
}

func TestOrderForBringUp_DoesNotMutateInput(t *testing.T) {
	ids := []catalog.PackageID{catalog.Core, catalog.Redis}
	OrderForBringUp(ids)
	assert.Equal(t, []catalog.PackageID{catalog.Core, catalog.Redis}, ids)
}

func TestOrderForBringUp_BackendsPrecedeEverything(t *testing.T) {
	// Every subset of modules combined with both engines.
	modules := AvailableModules(DefaultSelection("", ""))
	for mask := 0; mask < 1<<len(modules); mask++ {
		for _, engine := range []Engine{EngineMongo, EnginePostgres} {
			sel := DefaultSelection("", "")
			sel.Engine = engine
			for i, m := range modules {
				if mask&(1<<i) != 0 {
					assert.NoError(t, sel.AddModule(m))
				}
			}

			order := OrderForBringUp(sel.Expand())
			lastBackend, firstOther := -1, len(order)
			for i, id := range order {
				if catalog.IsStoreBackend(id) {
					lastBackend = i
				} else if i < firstOther {
					firstOther = i
				}
			}
			assert.Less(t, lastBackend, firstOther, "order %v", order)
		}
	}
}

// =============================================================================
// BringUpOrder Tests
// =============================================================================

func TestBringUpOrder_KeepsStoredOrder(t *testing.T) {
	p := Plan{
		Order: []catalog.PackageID{catalog.Postgres, catalog.UI, catalog.Core},
		Packages: map[catalog.PackageID]ResolvedPackage{
			catalog.Core: {}, catalog.UI: {}, catalog.Postgres: {},
		},
	}
	assert.Equal(t, p.Order, p.BringUpOrder())
}

func TestBringUpOrder_DerivedWhenMissing(t *testing.T) {
	p := Plan{Packages: map[catalog.PackageID]ResolvedPackage{
		catalog.Chat: {}, catalog.Core: {}, catalog.Mongo: {}, catalog.UI: {}, catalog.Redis: {},
	}}
	assert.Equal(t,
		[]catalog.PackageID{catalog.Redis, catalog.Mongo, catalog.Core, catalog.UI, catalog.Chat},
		p.BringUpOrder())
	assert.Len(t, BuildContainerPlans(p), 5)
}
