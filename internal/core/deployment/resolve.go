package deployment

import (
	"fmt"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Package Resolution Functions
// =============================================================================

// TagFor returns the image tag for a package.
// Store backends use their pinned version, UI follows the UI release line
// and everything else follows the Conduit release line.
func TagFor(id catalog.PackageID, sel Selection) string {
	if v, ok := catalog.PinnedVersion(id); ok {
		return v
	}
	if id == catalog.UI {
		return sel.UITag
	}
	return sel.ConduitTag
}

// ResolvePackage builds the ResolvedPackage for id from the host bindings
// the allocator produced. bindings must follow the template's port order.
//
// The chosen engine backend gets the selection's credentials; every other
// env value is the catalog default, placeholders included. Placeholders are
// filled later by Wire.
func ResolvePackage(id catalog.PackageID, sel Selection, bindings []PortBinding) (ResolvedPackage, error) {
	tmpl := catalog.Lookup(id)

	if len(bindings) != len(tmpl.Ports) {
		return ResolvedPackage{}, fmt.Errorf("%w: %s has %d bindings, template exposes %d",
			ErrBindingMismatch, id, len(bindings), len(tmpl.Ports))
	}
	ports := make([]PortBinding, len(bindings))
	for i, b := range bindings {
		if b.ContainerPort != tmpl.Ports[i] {
			return ResolvedPackage{}, fmt.Errorf("%w: %s binding %d targets %d, template says %d",
				ErrBindingMismatch, id, i, b.ContainerPort, tmpl.Ports[i])
		}
		ports[i] = b
	}

	env := tmpl.Env
	if id == sel.Engine.Backend() {
		applyCredentials(id, env, sel.Credentials)
	}

	return ResolvedPackage{
		Image:         catalog.Image(id),
		Tag:           TagFor(id, sel),
		ContainerName: ContainerName(id),
		Env:           env,
		Ports:         ports,
	}, nil
}

// applyCredentials writes non-empty credentials into a backend's env.
func applyCredentials(id catalog.PackageID, env map[string]string, creds Credentials) {
	userKey, passKey := credentialKeys(id)
	if userKey == "" {
		return
	}
	if creds.Username != "" {
		env[userKey] = creds.Username
	}
	if creds.Password != "" {
		env[passKey] = creds.Password
	}
}

// credentialKeys returns the env keys holding a backend's root credentials.
func credentialKeys(id catalog.PackageID) (user, pass string) {
	switch id {
	case catalog.Mongo:
		return catalog.EnvMongoUser, catalog.EnvMongoPassword
	case catalog.Postgres:
		return catalog.EnvPostgresUser, catalog.EnvPostgresPassword
	}
	return "", ""
}
