// Package deployment provides pure functions for demo deployment planning.
//
// This package turns a package Selection into a fully wired Plan. All
// functions are pure (no I/O, no side effects); the imperative shell
// (internal/shell/demo) supplies port bindings and image pulls and then
// calls back into this package.
//
// # Functions
//
//   - Selection: Build and extend the package selection (DefaultSelection, AddModule, Expand)
//   - Ordering: Move store backends to the front of bring-up (OrderForBringUp)
//   - Naming: Generate deterministic resource names (ContainerName, NetworkName)
//   - Resolution: Build one ResolvedPackage from its bindings (ResolvePackage)
//   - Wiring: Fill env placeholders from other packages (Wire)
//   - Container: Build container plans from resolved packages (BuildContainerPlan)
//
// # Usage
//
//	sel := deployment.DefaultSelection(conduitTag, uiTag)
//	order := deployment.OrderForBringUp(sel.Expand())
//	// shell: allocate ports and pull images per package in order
//	pkg, err := deployment.ResolvePackage(id, sel, bindings)
//	wired, err := deployment.Wire(plan)
package deployment
