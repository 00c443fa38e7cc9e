package deployment

import (
	"strings"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// NetworkName is the Docker network shared by every demo container.
const NetworkName = "conduit-demo"

// containerPrefix is prepended to every demo container name.
const containerPrefix = "conduit-"

// ContainerName generates the container name for a package.
// Pattern: conduit-{lowercase id}
//
// Example:
//
//	ContainerName(catalog.Postgres) // returns "conduit-postgres"
func ContainerName(id catalog.PackageID) string {
	return containerPrefix + strings.ToLower(string(id))
}

// ImageRef joins an image and a tag.
//
// Example:
//
//	ImageRef("redis", "latest") // returns "redis:latest"
func ImageRef(image, tag string) string {
	if tag == "" {
		return image
	}
	return image + ":" + tag
}
