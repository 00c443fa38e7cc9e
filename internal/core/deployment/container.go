package deployment

import "github.com/conduitplatform/conduit-cli/internal/core/catalog"

// =============================================================================
// Container Plan Building Functions
// =============================================================================

// BuildContainerPlan builds a ContainerPlan from a resolved package.
//
// This is a pure function that transforms a plan entry into a container
// configuration the shell can execute via the Docker API.
//
// Example:
//
//	pkg, _ := plan.Package(catalog.Redis)
//	cp := BuildContainerPlan(catalog.Redis, pkg, plan.NetworkName)
//	// cp.Name == "conduit-redis", cp.Image == "redis:latest"
func BuildContainerPlan(id catalog.PackageID, pkg ResolvedPackage, networkName string) ContainerPlan {
	plan := ContainerPlan{
		Name:  pkg.ContainerName,
		Image: pkg.ImageRef(),
		Env:   make(map[string]string, len(pkg.Env)),
		Labels: map[string]string{
			LabelManaged: "true",
			LabelPackage: string(id),
			LabelNetwork: networkName,
		},
		Networks:      []string{networkName},
		RestartPolicy: RestartPolicyPlan{Name: "no"},
	}

	for k, v := range pkg.Env {
		plan.Env[k] = v
	}

	for _, b := range pkg.Ports {
		plan.Ports = append(plan.Ports, PortPlan{
			ContainerPort: b.ContainerPort,
			HostPort:      b.HostPort,
			Protocol:      "tcp",
		})
	}

	return plan
}

// BuildContainerPlans builds container plans for every package in bring-up
// order.
func BuildContainerPlans(p Plan) []ContainerPlan {
	plans := make([]ContainerPlan, 0, len(p.Packages))
	for _, id := range p.BringUpOrder() {
		pkg, ok := p.Packages[id]
		if !ok {
			continue
		}
		plans = append(plans, BuildContainerPlan(id, pkg, p.NetworkName))
	}
	return plans
}
