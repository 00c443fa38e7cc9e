package compose

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/types"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
)

// DefaultProjectName is the compose project name used when none is given.
const DefaultProjectName = "conduit-demo"

// =============================================================================
// Export Functions
// =============================================================================

// Export renders plan as a compose file and loads the result back to make
// sure it describes exactly the same containers.
//
// Services are keyed by container name. Every package that is not a store
// backend depends on the backends, and Conduit modules and the UI also
// depend on Core, so `docker compose up` follows the plan's bring-up order.
func Export(ctx context.Context, plan deployment.Plan, projectName string) ([]byte, error) {
	if len(plan.Packages) == 0 {
		return nil, ErrEmptyPlan
	}
	if projectName == "" {
		projectName = DefaultProjectName
	}

	project := BuildProject(plan, projectName)

	out, err := project.MarshalYAML()
	if err != nil {
		return nil, fmt.Errorf("encode compose file: %w", err)
	}

	loaded, err := Load(ctx, string(out), projectName)
	if err != nil {
		return nil, err
	}
	if err := CheckRoundTrip(plan, loaded); err != nil {
		return nil, err
	}

	return out, nil
}

// BuildProject converts a plan into a compose project.
func BuildProject(plan deployment.Plan, projectName string) *types.Project {
	project := &types.Project{
		Name:     projectName,
		Services: types.Services{},
		Networks: types.Networks{
			plan.NetworkName: types.NetworkConfig{Name: plan.NetworkName},
		},
	}

	var backends []string
	for _, id := range plan.BringUpOrder() {
		if pkg, ok := plan.Packages[id]; ok && catalog.IsStoreBackend(id) {
			backends = append(backends, pkg.ContainerName)
		}
	}
	core, hasCore := plan.Packages[catalog.Core]

	for _, cp := range deployment.BuildContainerPlans(plan) {
		id := catalog.PackageID(cp.Labels[deployment.LabelPackage])

		svc := types.ServiceConfig{
			Name:          cp.Name,
			Image:         cp.Image,
			ContainerName: cp.Name,
			Environment:   types.MappingWithEquals{},
			Labels:        types.Labels{},
			Networks:      map[string]*types.ServiceNetworkConfig{},
			Restart:       cp.RestartPolicy.Name,
		}
		for k, v := range cp.Env {
			value := escapeInterpolation(v)
			svc.Environment[k] = &value
		}
		for k, v := range cp.Labels {
			svc.Labels[k] = v
		}
		for _, n := range cp.Networks {
			svc.Networks[n] = nil
		}
		for _, p := range cp.Ports {
			svc.Ports = append(svc.Ports, types.ServicePortConfig{
				Target:    uint32(p.ContainerPort),
				Published: strconv.Itoa(p.HostPort),
				Protocol:  p.Protocol,
			})
		}

		if !catalog.IsStoreBackend(id) {
			deps := append([]string(nil), backends...)
			if id != catalog.Core && hasCore {
				deps = append(deps, core.ContainerName)
			}
			if len(deps) > 0 {
				svc.DependsOn = types.DependsOnConfig{}
				for _, d := range deps {
					svc.DependsOn[d] = types.ServiceDependency{
						Condition: types.ServiceConditionStarted,
						Required:  true,
					}
				}
			}
		}

		project.Services[svc.Name] = svc
	}

	return project
}

// escapeInterpolation doubles every '$' so compose keeps values literal.
func escapeInterpolation(v string) string {
	return strings.ReplaceAll(v, "$", "$$")
}

// =============================================================================
// Reload Check
// =============================================================================

// CheckRoundTrip verifies that a loaded compose project describes the plan's
// containers: same services, images, env and port bindings.
func CheckRoundTrip(plan deployment.Plan, project *types.Project) error {
	want := deployment.BuildContainerPlans(plan)
	if len(project.Services) != len(want) {
		return NewParseError("services",
			fmt.Sprintf("has %d services, plan has %d", len(project.Services), len(want)), ErrRoundTrip)
	}

	for _, cp := range want {
		field := "services." + cp.Name
		svc, ok := project.Services[cp.Name]
		if !ok {
			return NewParseError(field, "missing", ErrRoundTrip)
		}
		if svc.Image != cp.Image {
			return NewParseError(field+".image",
				fmt.Sprintf("is %q, want %q", svc.Image, cp.Image), ErrRoundTrip)
		}

		if len(svc.Environment) != len(cp.Env) {
			return NewParseError(field+".environment",
				fmt.Sprintf("has %d entries, want %d", len(svc.Environment), len(cp.Env)), ErrRoundTrip)
		}
		for k, v := range cp.Env {
			got := svc.Environment[k]
			if got == nil || *got != v {
				return NewParseError(field+".environment."+k, "value differs", ErrRoundTrip)
			}
		}

		got := servicePorts(svc)
		wantPorts := make([]string, 0, len(cp.Ports))
		for _, p := range cp.Ports {
			wantPorts = append(wantPorts, fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort))
		}
		sort.Strings(wantPorts)
		if strings.Join(got, ",") != strings.Join(wantPorts, ",") {
			return NewParseError(field+".ports",
				fmt.Sprintf("are %v, want %v", got, wantPorts), ErrRoundTrip)
		}
	}
	return nil
}

// servicePorts returns a service's bindings as sorted "host:container" strings.
func servicePorts(svc types.ServiceConfig) []string {
	out := make([]string, 0, len(svc.Ports))
	for _, p := range svc.Ports {
		out = append(out, fmt.Sprintf("%s:%d", p.Published, p.Target))
	}
	sort.Strings(out)
	return out
}
