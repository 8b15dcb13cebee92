package authz

import "errors"

// Fatal, fail-closed preconditions. All of these must be surfaced before
// any network request is issued.
var (
	// ErrPolicyInvalid covers a missing, unparsable, or schema-invalid
	// policy file.
	ErrPolicyInvalid = errors.New("authz: policy invalid")

	// ErrOutOfScope is returned for a target not covered by the scope
	// allow-list.
	ErrOutOfScope = errors.New("authz: target out of scope")

	// ErrFocusViolation is returned when focus mode restricts the run to a
	// different target.
	ErrFocusViolation = errors.New("authz: focus violation")

	// ErrNotAcknowledged is returned when active probing is requested
	// without an explicit authorization acknowledgment. Distinct from scope
	// and policy failures.
	ErrNotAcknowledged = errors.New("authz: active probing requires explicit authorization acknowledgment")
)
