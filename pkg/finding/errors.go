package finding

import "errors"

var (
	// ErrInvalidType is returned when constructing a finding with an
	// unrecognized vulnerability class.
	ErrInvalidType = errors.New("finding: invalid type")

	// ErrInvalidSeverity is returned when constructing a finding with an
	// unrecognized severity level.
	ErrInvalidSeverity = errors.New("finding: invalid severity")
)
