package validation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/core/release"
)

// =============================================================================
// Plan Validation Errors
// =============================================================================

var (
	ErrDuplicateHostPort      = errors.New("host port claimed twice")
	ErrDuplicateContainerName = errors.New("container name used twice")
	ErrEngineBackend          = errors.New("plan must contain exactly one database engine backend")
	ErrUnwiredEnv             = errors.New("env placeholder left unresolved")
	ErrPortCount              = errors.New("binding count differs from template")
	ErrOrderMismatch          = errors.New("bring-up order does not match packages")
	ErrBackendOrder           = errors.New("store backend ordered after a dependent")
)

// =============================================================================
// Plan Validation Functions
// =============================================================================

// ValidatePlan checks every invariant a wired plan has to satisfy before
// it is persisted. It returns all violations, sorted by message, or nil.
//
// Checks:
//   - no two packages claim the same host port
//   - container names are unique
//   - exactly one of Mongo and Postgres is present, matching the plan engine
//   - no env value is left empty and every template placeholder is present
//   - each package has one binding per template port
//   - Order lists exactly the plan's packages, store backends first
func ValidatePlan(plan deployment.Plan) []error {
	var errs []error

	ports := make(map[int]catalog.PackageID)
	names := make(map[string]catalog.PackageID)
	for _, id := range sortedIDs(plan) {
		pkg := plan.Packages[id]

		for _, b := range pkg.Ports {
			if prev, ok := ports[b.HostPort]; ok {
				errs = append(errs, fmt.Errorf("%w: %d by %s and %s", ErrDuplicateHostPort, b.HostPort, prev, id))
				continue
			}
			ports[b.HostPort] = id
		}

		if prev, ok := names[pkg.ContainerName]; ok {
			errs = append(errs, fmt.Errorf("%w: %q by %s and %s", ErrDuplicateContainerName, pkg.ContainerName, prev, id))
		} else {
			names[pkg.ContainerName] = id
		}

		for k, v := range pkg.Env {
			if v == "" {
				errs = append(errs, fmt.Errorf("%w: %s %s", ErrUnwiredEnv, id, k))
			}
		}
		for _, k := range catalog.Lookup(id).Placeholders() {
			if _, ok := pkg.Env[k]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s %s missing", ErrUnwiredEnv, id, k))
			}
		}

		if want := len(catalog.Lookup(id).Ports); len(pkg.Ports) != want {
			errs = append(errs, fmt.Errorf("%w: %s has %d, want %d", ErrPortCount, id, len(pkg.Ports), want))
		}
	}

	_, hasMongo := plan.Packages[catalog.Mongo]
	_, hasPostgres := plan.Packages[catalog.Postgres]
	switch {
	case hasMongo == hasPostgres:
		errs = append(errs, fmt.Errorf("%w: mongo=%t postgres=%t", ErrEngineBackend, hasMongo, hasPostgres))
	case plan.Engine != "" && !hasBackendFor(plan):
		errs = append(errs, fmt.Errorf("%w: engine %s has no %s", ErrEngineBackend, plan.Engine, plan.Engine.Backend()))
	}

	errs = append(errs, ValidateOrder(plan)...)

	if len(errs) == 0 {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errs
}

func hasBackendFor(plan deployment.Plan) bool {
	_, ok := plan.Packages[plan.Engine.Backend()]
	return ok
}

// ValidateOrder checks that Order lists every package of the plan exactly
// once, with store backends ahead of everything else.
func ValidateOrder(plan deployment.Plan) []error {
	var errs []error
	seen := make(map[catalog.PackageID]bool, len(plan.Order))
	sawOther := false
	for _, id := range plan.Order {
		if _, ok := plan.Packages[id]; !ok || seen[id] {
			errs = append(errs, fmt.Errorf("%w: unexpected %s", ErrOrderMismatch, id))
			continue
		}
		seen[id] = true
		if catalog.IsStoreBackend(id) {
			if sawOther {
				errs = append(errs, fmt.Errorf("%w: %s", ErrBackendOrder, id))
			}
		} else {
			sawOther = true
		}
	}
	for _, id := range sortedIDs(plan) {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("%w: %s missing", ErrOrderMismatch, id))
		}
	}
	return errs
}

func sortedIDs(plan deployment.Plan) []catalog.PackageID {
	ids := make([]catalog.PackageID, 0, len(plan.Packages))
	for id := range plan.Packages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// =============================================================================
// User Input Validation Functions
// =============================================================================

// ValidateCredentials validates database credentials.
// Returns the field name and error message if validation fails.
// Returns empty strings if both fields are valid. Any characters are
// accepted; the connection URI percent-encodes them.
//
// Example:
//
//	field, msg := ValidateCredentials("conduit", "pass")
//	if field != "" {
//	    // re-prompt for field
//	}
func ValidateCredentials(username, password string) (field, message string) {
	if username == "" {
		return "username", "username is required"
	}
	if password == "" {
		return "password", "password is required"
	}
	return "", ""
}

// ValidateTag checks that tag is one of the published tags.
// Returns whether the tag is allowed and an optional reason if not.
func ValidateTag(tag string, published []string) (bool, string) {
	if tag == "" {
		return false, "version is required"
	}
	if release.Contains(published, tag) {
		return true, ""
	}
	return false, fmt.Sprintf("version %q is not a published release", tag)
}
