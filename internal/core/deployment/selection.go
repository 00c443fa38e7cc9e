package deployment

import (
	"fmt"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Selection State
// =============================================================================

// Default database credentials offered to the user.
const (
	DefaultDBUsername = "conduit"
	DefaultDBPassword = "pass"
)

// Credentials are the database root credentials for the chosen engine.
type Credentials struct {
	Username string
	Password string
}

// Selection is the transient state gathered before synthesis: the chosen
// packages, database engine, version tags and credentials.
//
// Packages never contains Mongo or Postgres; the engine backend is added by
// Expand so exactly one of them ends up in the deployment.
type Selection struct {
	Packages    []catalog.PackageID
	Engine      Engine
	ConduitTag  string
	UITag       string
	Credentials Credentials
}

// defaultPackages is the base selection every demo starts from.
var defaultPackages = []catalog.PackageID{
	catalog.Core,
	catalog.UI,
	catalog.Database,
	catalog.Authentication,
	catalog.Redis,
}

// DefaultSelection returns the base selection with MongoDB and the default
// credentials.
func DefaultSelection(conduitTag, uiTag string) Selection {
	return Selection{
		Packages:   append([]catalog.PackageID(nil), defaultPackages...),
		Engine:     EngineMongo,
		ConduitTag: conduitTag,
		UITag:      uiTag,
		Credentials: Credentials{
			Username: DefaultDBUsername,
			Password: DefaultDBPassword,
		},
	}
}

// Has reports whether id is part of the selection.
func (s Selection) Has(id catalog.PackageID) bool {
	for _, p := range s.Packages {
		if p == id {
			return true
		}
	}
	return false
}

// AddModule appends a module to the selection.
func (s *Selection) AddModule(id catalog.PackageID) error {
	if !catalog.IsModule(id) {
		return fmt.Errorf("%w: %s", ErrNotAModule, id)
	}
	if s.Has(id) {
		return fmt.Errorf("%w: %s", ErrAlreadySelected, id)
	}
	s.Packages = append(s.Packages, id)
	return nil
}

// Modules returns the selected Conduit modules in selection order.
func (s Selection) Modules() []catalog.PackageID {
	var out []catalog.PackageID
	for _, id := range s.Packages {
		if catalog.IsModule(id) {
			out = append(out, id)
		}
	}
	return out
}

// AvailableModules returns the catalog modules not yet selected, in catalog
// order.
func AvailableModules(s Selection) []catalog.PackageID {
	var out []catalog.PackageID
	for _, id := range catalog.All() {
		if catalog.IsModule(id) && !s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// WithEngine returns a copy of the selection using engine.
func (s Selection) WithEngine(engine Engine) Selection {
	out := s
	out.Packages = append([]catalog.PackageID(nil), s.Packages...)
	out.Engine = engine
	return out
}

// Expand returns the final package list: the selection with any stray
// engine backend removed and the chosen engine's backend appended.
//
// Core is assumed present; DefaultSelection always includes it.
func (s Selection) Expand() []catalog.PackageID {
	engine := s.Engine
	if engine == "" {
		engine = EngineMongo
	}
	out := make([]catalog.PackageID, 0, len(s.Packages)+1)
	for _, id := range s.Packages {
		if id == catalog.Mongo || id == catalog.Postgres {
			continue
		}
		out = append(out, id)
	}
	return append(out, engine.Backend())
}
