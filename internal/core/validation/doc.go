// Package validation provides pure validation functions for demo plans and
// user choices.
//
// All functions are pure (no I/O, no side effects). The setup flow calls
// them before persisting anything, so an inconsistent plan never reaches
// the plan store.
//
// # Functions
//
//   - ValidatePlan: Check the invariants of a synthesized plan
//   - ValidateCredentials: Check that database credentials are present
//   - ValidateTag: Check a chosen version tag against the published tags
//
// # Usage
//
//	if errs := validation.ValidatePlan(plan); len(errs) > 0 {
//	    // refuse to persist
//	}
package validation
