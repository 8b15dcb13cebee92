package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Run completed and produced a report
	ExitAuthzDenied   = 1 // Policy, scope, focus, or acknowledgment failure
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitInternalError = 3 // Unexpected internal error
)
