// Package catalog holds the static table of deployable Conduit demo packages.
//
// The table is process-wide read-only state. Lookup hands out copies so the
// planning code can never mutate the defaults.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Package Identifiers
// =============================================================================

// PackageID identifies a selectable unit of the demo deployment.
type PackageID string

const (
	Core              PackageID = "Core"
	UI                PackageID = "UI"
	Database          PackageID = "Database"
	Authentication    PackageID = "Authentication"
	Chat              PackageID = "Chat"
	Email             PackageID = "Email"
	Forms             PackageID = "Forms"
	PushNotifications PackageID = "PushNotifications"
	SMS               PackageID = "SMS"
	Storage           PackageID = "Storage"
	Redis             PackageID = "Redis"
	Mongo             PackageID = "Mongo"
	Postgres          PackageID = "Postgres"
)

// ErrUnknownPackage is returned by Parse for names outside the catalog.
var ErrUnknownPackage = errors.New("unknown package")

// all lists every package in catalog order.
var all = []PackageID{
	Core, UI, Database, Authentication, Chat, Email, Forms,
	PushNotifications, SMS, Storage, Redis, Mongo, Postgres,
}

// All returns every catalog package in declaration order.
func All() []PackageID {
	out := make([]PackageID, len(all))
	copy(out, all)
	return out
}

// Parse converts a case-insensitive package name to a PackageID.
func Parse(name string) (PackageID, error) {
	for _, id := range all {
		if strings.EqualFold(string(id), strings.TrimSpace(name)) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPackage, name)
}

// IsStoreBackend reports whether id is a database or cache engine that has
// to be running before anything that depends on it.
func IsStoreBackend(id PackageID) bool {
	switch id {
	case Redis, Mongo, Postgres:
		return true
	}
	return false
}

// IsModule reports whether id is a Conduit module the user may opt into.
func IsModule(id PackageID) bool {
	switch id {
	case Core, UI, Redis, Mongo, Postgres:
		return false
	}
	_, ok := templates[id]
	return ok
}

// =============================================================================
// Templates
// =============================================================================

// Environment variable names shared between the catalog and the wiring step.
const (
	EnvRedisHost     = "REDIS_HOST"
	EnvRedisPort     = "REDIS_PORT"
	EnvMasterKey     = "MASTER_KEY"
	EnvPort          = "PORT"
	EnvSocketPort    = "SOCKET_PORT"
	EnvConduitURL    = "CONDUIT_URL"
	EnvConduitServer = "CONDUIT_SERVER"
	EnvRegisterName  = "REGISTER_NAME"
	EnvDBType        = "DB_TYPE"
	EnvDBConnURI     = "DB_CONN_URI"

	EnvMongoUser        = "MONGO_INITDB_ROOT_USERNAME"
	EnvMongoPassword    = "MONGO_INITDB_ROOT_PASSWORD"
	EnvPostgresUser     = "POSTGRES_USER"
	EnvPostgresPassword = "POSTGRES_PASSWORD"
)

// DefaultMasterKey is the admin master key baked into the demo.
const DefaultMasterKey = "M4ST3RK3Y"

// Template is the default configuration of a package.
// An empty Env value is a placeholder filled during wiring.
// Ports are container ports; their order is significant.
type Template struct {
	Env   map[string]string
	Ports []int
}

// Placeholders returns the env keys whose default value is empty.
func (t Template) Placeholders() []string {
	var keys []string
	for k, v := range t.Env {
		if v == "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func moduleTemplate(extra map[string]string) Template {
	env := map[string]string{
		EnvConduitServer: "",
		EnvRegisterName:  "true",
	}
	for k, v := range extra {
		env[k] = v
	}
	return Template{Env: env}
}

var templates = map[PackageID]Template{
	Core: {
		Env: map[string]string{
			EnvRedisHost:  "conduit-redis",
			EnvRedisPort:  "",
			EnvMasterKey:  DefaultMasterKey,
			EnvPort:       "",
			EnvSocketPort: "",
		},
		Ports: []int{55152, 3000, 3001}, // gRPC, HTTP, sockets
	},
	UI: {
		Env: map[string]string{
			EnvConduitURL: "",
			EnvMasterKey:  DefaultMasterKey,
		},
		Ports: []int{8080},
	},
	Database: moduleTemplate(map[string]string{
		EnvDBType:    "",
		EnvDBConnURI: "",
	}),
	Authentication:    moduleTemplate(nil),
	Chat:              moduleTemplate(nil),
	Email:             moduleTemplate(nil),
	Forms:             moduleTemplate(nil),
	PushNotifications: moduleTemplate(nil),
	SMS:               moduleTemplate(nil),
	Storage:           moduleTemplate(nil),
	Redis: {
		Env:   map[string]string{},
		Ports: []int{6379},
	},
	Mongo: {
		Env: map[string]string{
			EnvMongoUser:     "conduit",
			EnvMongoPassword: "pass",
		},
		Ports: []int{27017},
	},
	Postgres: {
		Env: map[string]string{
			EnvPostgresUser:     "conduit",
			EnvPostgresPassword: "pass",
		},
		Ports: []int{5432},
	},
}

// Lookup returns a copy of the template for id.
// It panics when id is not part of the catalog; callers only ever pass
// values from this package's constants.
func Lookup(id PackageID) Template {
	t, ok := templates[id]
	if !ok {
		panic(fmt.Sprintf("catalog: no template for package %q", id))
	}
	env := make(map[string]string, len(t.Env))
	for k, v := range t.Env {
		env[k] = v
	}
	ports := make([]int, len(t.Ports))
	copy(ports, t.Ports)
	return Template{Env: env, Ports: ports}
}

// =============================================================================
// Images and Versions
// =============================================================================

// Pinned store backend versions.
const (
	RedisVersion    = "latest"
	MongoVersion    = "latest"
	PostgresVersion = "latest"
)

// Release projects whose tags drive the Conduit and UI image versions.
const (
	ConduitProject   = "ConduitPlatform/Conduit"
	ConduitUIProject = "ConduitPlatform/Conduit-UI"
)

const imageOrg = "conduitplatform"

// Image returns the image reference (without tag) for id.
func Image(id PackageID) string {
	switch id {
	case Core:
		return imageOrg + "/conduit"
	case UI:
		return imageOrg + "/conduit-ui"
	case Redis:
		return "redis"
	case Mongo:
		return "mongo"
	case Postgres:
		return "postgres"
	}
	if _, ok := templates[id]; !ok {
		panic(fmt.Sprintf("catalog: no image for package %q", id))
	}
	return imageOrg + "/" + strings.ToLower(string(id))
}

// PinnedVersion returns the fixed tag of a store backend.
func PinnedVersion(id PackageID) (string, bool) {
	switch id {
	case Redis:
		return RedisVersion, true
	case Mongo:
		return MongoVersion, true
	case Postgres:
		return PostgresVersion, true
	}
	return "", false
}
