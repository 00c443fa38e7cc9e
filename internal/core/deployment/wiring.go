package deployment

import (
	"strconv"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Cross-Wiring Functions
// =============================================================================

// Wire fills every env placeholder that depends on another package's
// resolved configuration. It returns a new plan and leaves its input
// untouched, so a partially wired plan is never observable.
//
// Rules:
//   - Core: REDIS_PORT from Redis, PORT and SOCKET_PORT from Core's own
//     HTTP and socket bindings
//   - Database: DB_TYPE and DB_CONN_URI from the engine backend
//   - UI: CONDUIT_URL from Core's HTTP binding on localhost
//   - any package with a CONDUIT_SERVER key: Core's container name and RPC port
//
// Container-side ports are used throughout because dependents talk to each
// other over the demo network, not through host bindings.
func Wire(plan Plan) (Plan, error) {
	out := plan.Clone()

	var corePorts *CorePorts
	core, hasCore := out.Packages[catalog.Core]
	if hasCore {
		cp, err := NewCorePorts(core.Ports)
		if err != nil {
			return Plan{}, &WiringError{Package: catalog.Core, Message: err.Error(), Err: err}
		}
		corePorts = &cp

		redis, ok := out.Packages[catalog.Redis]
		if !ok || len(redis.Ports) == 0 {
			return Plan{}, missing(catalog.Core, catalog.Redis)
		}
		core.Env[catalog.EnvRedisPort] = strconv.Itoa(redis.Ports[0].ContainerPort)
		core.Env[catalog.EnvPort] = strconv.Itoa(cp.HTTP.ContainerPort)
		core.Env[catalog.EnvSocketPort] = strconv.Itoa(cp.Socket.ContainerPort)
		out.Packages[catalog.Core] = core
	}

	if db, ok := out.Packages[catalog.Database]; ok {
		if err := wireDatabase(out, &db); err != nil {
			return Plan{}, err
		}
		out.Packages[catalog.Database] = db
	}

	if ui, ok := out.Packages[catalog.UI]; ok {
		if corePorts == nil {
			return Plan{}, missing(catalog.UI, catalog.Core)
		}
		ui.Env[catalog.EnvConduitURL] = "http://localhost:" + strconv.Itoa(corePorts.HTTP.ContainerPort)
		out.Packages[catalog.UI] = ui
	}

	for id, pkg := range out.Packages {
		if _, ok := pkg.Env[catalog.EnvConduitServer]; !ok {
			continue
		}
		if corePorts == nil {
			return Plan{}, missing(id, catalog.Core)
		}
		pkg.Env[catalog.EnvConduitServer] = ConduitServerAddress(corePorts.RPC)
		out.Packages[id] = pkg
	}

	return out, nil
}

// ConduitServerAddress returns the in-network gRPC address of Core.
func ConduitServerAddress(rpc PortBinding) string {
	return ContainerName(catalog.Core) + ":" + strconv.Itoa(rpc.ContainerPort)
}

// wireDatabase fills the Database module's connection fields from the
// engine backend present in the plan.
func wireDatabase(plan Plan, db *ResolvedPackage) error {
	engine := plan.Engine
	if engine == "" {
		engine = EngineMongo
	}
	backendID := engine.Backend()
	backend, ok := plan.Packages[backendID]
	if !ok || len(backend.Ports) == 0 {
		return missing(catalog.Database, backendID)
	}

	userKey, passKey := credentialKeys(backendID)
	db.Env[catalog.EnvDBType] = string(engine)
	db.Env[catalog.EnvDBConnURI] = ConnectionURI(
		engine,
		backend.Env[userKey],
		backend.Env[passKey],
		ContainerName(backendID),
		backend.Ports[0].ContainerPort,
	)
	return nil
}
