package deployment

import (
	"errors"
	"fmt"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
)

var (
	// Selection errors
	ErrNotAModule        = errors.New("package is not a selectable module")
	ErrAlreadySelected   = errors.New("package is already selected")
	ErrUnknownEngine     = errors.New("unknown database engine")
	ErrInvalidBinding    = errors.New("invalid port binding")
	ErrBindingMismatch   = errors.New("port bindings do not match package template")
	ErrMissingDependency = errors.New("wiring target missing from plan")
)

// WiringError reports which package could not be wired and why.
type WiringError struct {
	Package catalog.PackageID
	Needs   catalog.PackageID
	Message string
	Err     error
}

func (e *WiringError) Error() string {
	if e.Needs != "" {
		return fmt.Sprintf("wire %s: needs %s: %s", e.Package, e.Needs, e.Message)
	}
	return fmt.Sprintf("wire %s: %s", e.Package, e.Message)
}

func (e *WiringError) Unwrap() error {
	return e.Err
}

func missing(pkg, needs catalog.PackageID) *WiringError {
	return &WiringError{
		Package: pkg,
		Needs:   needs,
		Message: "package not in plan",
		Err:     ErrMissingDependency,
	}
}
