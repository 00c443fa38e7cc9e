package validation

import (
	"testing"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func wiredPlan(t *testing.T, engine deployment.Engine) deployment.Plan {
	t.Helper()
	sel := deployment.DefaultSelection("v1", "v1")
	sel.Engine = engine
	order := deployment.OrderForBringUp(sel.Expand())

	plan := deployment.Plan{
		NetworkName: deployment.NetworkName,
		Engine:      engine,
		Order:       order,
		Packages:    map[catalog.PackageID]deployment.ResolvedPackage{},
	}
	for _, id := range order {
		var bindings []deployment.PortBinding
		for _, p := range catalog.Lookup(id).Ports {
			bindings = append(bindings, deployment.PortBinding{HostPort: p, ContainerPort: p})
		}
		pkg, err := deployment.ResolvePackage(id, sel, bindings)
		require.NoError(t, err)
		plan.Packages[id] = pkg
	}

	wired, err := deployment.Wire(plan)
	require.NoError(t, err)
	return wired
}

// =============================================================================
// ValidatePlan Tests
// =============================================================================

func TestValidatePlan_Valid(t *testing.T) {
	assert.Empty(t, ValidatePlan(wiredPlan(t, deployment.EngineMongo)))
	assert.Empty(t, ValidatePlan(wiredPlan(t, deployment.EnginePostgres)))
}

func TestValidatePlan_DuplicateHostPort(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	ui := plan.Packages[catalog.UI]
	ui.Ports = []deployment.PortBinding{{HostPort: 3000, ContainerPort: 8080}}
	plan.Packages[catalog.UI] = ui

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDuplicateHostPort)
}

func TestValidatePlan_DuplicateContainerName(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	chat := plan.Packages[catalog.Authentication]
	chat.ContainerName = "conduit-core"
	plan.Packages[catalog.Authentication] = chat

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDuplicateContainerName)
}

func TestValidatePlan_BothEngines(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	pg := wiredPlan(t, deployment.EnginePostgres)
	plan.Packages[catalog.Postgres] = pg.Packages[catalog.Postgres]
	plan.Order = append([]catalog.PackageID{catalog.Postgres}, plan.Order...)

	errs := ValidatePlan(plan)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrEngineBackend)
}

func TestValidatePlan_NoEngine(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	delete(plan.Packages, catalog.Mongo)
	plan.Order = deployment.OrderForBringUp([]catalog.PackageID{
		catalog.Core, catalog.UI, catalog.Database, catalog.Authentication, catalog.Redis,
	})

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEngineBackend)
}

func TestValidatePlan_EngineMismatch(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	plan.Engine = deployment.EnginePostgres

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEngineBackend)
}

func TestValidatePlan_UnwiredEnv(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	plan.Packages[catalog.Core].Env[catalog.EnvPort] = ""

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnwiredEnv)
}

func TestValidatePlan_PlaceholderMissing(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	delete(plan.Packages[catalog.UI].Env, catalog.EnvConduitURL)

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnwiredEnv)
	assert.Contains(t, errs[0].Error(), "missing")
}

func TestValidatePlan_PortCount(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	core := plan.Packages[catalog.Core]
	core.Ports = core.Ports[:2]
	plan.Packages[catalog.Core] = core

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrPortCount)
}

func TestValidatePlan_BackendAfterDependent(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	plan.Order = []catalog.PackageID{
		catalog.Core, catalog.Redis, catalog.Mongo, catalog.UI, catalog.Database, catalog.Authentication,
	}

	errs := ValidatePlan(plan)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrBackendOrder)
	}
}

func TestValidatePlan_OrderMissingPackage(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	plan.Order = plan.Order[:len(plan.Order)-1]

	errs := ValidatePlan(plan)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrOrderMismatch)
}

func TestValidateOrder_Empty(t *testing.T) {
	plan := wiredPlan(t, deployment.EngineMongo)
	plan.Order = nil

	errs := ValidateOrder(plan)
	assert.Len(t, errs, len(plan.Packages))
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrOrderMismatch)
	}
}

func TestValidateOrder_Valid(t *testing.T) {
	assert.Empty(t, ValidateOrder(wiredPlan(t, deployment.EnginePostgres)))
}

// =============================================================================
// ValidateCredentials Tests
// =============================================================================

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantField string
	}{
		{"valid", "conduit", "pass", ""},
		{"missing username", "", "pass", "username"},
		{"missing password", "conduit", "", "password"},
		{"username with at sign", "con@duit", "pass", ""},
		{"password with uri characters", "conduit", "pa:ss/w?rd#", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, msg := ValidateCredentials(tt.username, tt.password)
			assert.Equal(t, tt.wantField, field)
			if tt.wantField == "" {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

// =============================================================================
// ValidateTag Tests
// =============================================================================

func TestValidateTag(t *testing.T) {
	published := []string{"v1.2.0", "v1.1.0", "latest"}

	ok, reason := ValidateTag("v1.1.0", published)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = ValidateTag("v9.9.9", published)
	assert.False(t, ok)
	assert.Contains(t, reason, "v9.9.9")

	ok, _ = ValidateTag("", published)
	assert.False(t, ok)
}
