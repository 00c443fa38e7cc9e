package deployment

import (
	"testing"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DefaultSelection Tests
// =============================================================================

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection("v0.16.0", "v0.16.1")

	assert.Equal(t, []catalog.PackageID{
		catalog.Core, catalog.UI, catalog.Database, catalog.Authentication, catalog.Redis,
	}, sel.Packages)
	assert.Equal(t, EngineMongo, sel.Engine)
	assert.Equal(t, "v0.16.0", sel.ConduitTag)
	assert.Equal(t, "v0.16.1", sel.UITag)
	assert.Equal(t, Credentials{Username: "conduit", Password: "pass"}, sel.Credentials)
}

func TestDefaultSelection_IndependentCopies(t *testing.T) {
	a := DefaultSelection("", "")
	require.NoError(t, a.AddModule(catalog.Chat))
	b := DefaultSelection("", "")
	assert.False(t, b.Has(catalog.Chat))
}

// =============================================================================
// AddModule / AvailableModules Tests
// =============================================================================

func TestAddModule(t *testing.T) {
	sel := DefaultSelection("", "")
	require.NoError(t, sel.AddModule(catalog.Storage))
	assert.True(t, sel.Has(catalog.Storage))
}

func TestAddModule_RejectsNonModules(t *testing.T) {
	for _, id := range []catalog.PackageID{catalog.Core, catalog.UI, catalog.Redis, catalog.Mongo, catalog.Postgres} {
		sel := DefaultSelection("", "")
		err := sel.AddModule(id)
		assert.ErrorIs(t, err, ErrNotAModule, "package %s", id)
	}
}

func TestAddModule_RejectsDuplicates(t *testing.T) {
	sel := DefaultSelection("", "")
	err := sel.AddModule(catalog.Authentication)
	assert.ErrorIs(t, err, ErrAlreadySelected)
}

func TestAvailableModules(t *testing.T) {
	sel := DefaultSelection("", "")
	assert.Equal(t, []catalog.PackageID{
		catalog.Chat, catalog.Email, catalog.Forms, catalog.PushNotifications, catalog.SMS, catalog.Storage,
	}, AvailableModules(sel))

	require.NoError(t, sel.AddModule(catalog.Email))
	assert.NotContains(t, AvailableModules(sel), catalog.Email)
}

func TestModules(t *testing.T) {
	sel := DefaultSelection("", "")
	assert.Equal(t, []catalog.PackageID{catalog.Database, catalog.Authentication}, sel.Modules())
}

// =============================================================================
// Expand Tests
// =============================================================================

func TestExpand_ExactlyOneEngineBackend(t *testing.T) {
	tests := []struct {
		name    string
		engine  Engine
		want    catalog.PackageID
		notWant catalog.PackageID
	}{
		{"mongo", EngineMongo, catalog.Mongo, catalog.Postgres},
		{"postgres", EnginePostgres, catalog.Postgres, catalog.Mongo},
		{"unset defaults to mongo", "", catalog.Mongo, catalog.Postgres},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := DefaultSelection("", "")
			sel.Engine = tt.engine
			// A stray backend in the base selection must not survive.
			sel.Packages = append(sel.Packages, tt.notWant)

			got := sel.Expand()
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, tt.notWant)
		})
	}
}

func TestExpand_KeepsSelectionOrder(t *testing.T) {
	sel := DefaultSelection("", "")
	require.NoError(t, sel.AddModule(catalog.Forms))
	assert.Equal(t, []catalog.PackageID{
		catalog.Core, catalog.UI, catalog.Database, catalog.Authentication, catalog.Redis,
		catalog.Forms, catalog.Mongo,
	}, sel.Expand())
}

// =============================================================================
// Engine Tests
// =============================================================================

func TestWithEngine(t *testing.T) {
	base := DefaultSelection("v1", "v1")
	pg := base.WithEngine(EnginePostgres)

	assert.Equal(t, EngineMongo, base.Engine)
	assert.Equal(t, EnginePostgres, pg.Engine)
	assert.Contains(t, pg.Expand(), catalog.Postgres)
	assert.NotContains(t, pg.Expand(), catalog.Mongo)

	require.NoError(t, pg.AddModule(catalog.Chat))
	assert.False(t, base.Has(catalog.Chat))
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"mongodb", EngineMongo, false},
		{"Mongo", EngineMongo, false},
		{"postgres", EnginePostgres, false},
		{"postgresql", EnginePostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngine(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEngine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_DisplayName(t *testing.T) {
	assert.Equal(t, "MongoDB", EngineMongo.DisplayName())
	assert.Equal(t, "PostgreSQL", EnginePostgres.DisplayName())
}
