// Package authz is the fail-closed authorization gate: no component may
// issue a network request until Authorize has returned a Decision. The gate
// validates the allow-policy, checks the scope list and optional focus
// lock, and for active probing demands an explicit acknowledgment.
package authz

import (
	"log/slog"

	"github.com/google/uuid"
)

// Request carries everything the gate needs to decide one run.
type Request struct {
	// Target is the raw target (host or URL) for this run.
	Target string

	// PolicyPath, ScopePath, FocusPath locate the three config files.
	PolicyPath string
	ScopePath  string
	FocusPath  string

	// Active marks the run as active (non-passive) probing.
	Active bool

	// Acknowledged is the caller's explicit confirmation of authorization
	// for active probing. Required when Active is set.
	Acknowledged bool

	// RunID overrides the generated run identifier. Mainly for tests.
	RunID string

	// AuditLogPath, when set, mirrors the audit line to a rotating file.
	AuditLogPath string
}

// Decision is the result of a successful authorization.
type Decision struct {
	RunID        string  `json:"run_id"`
	PolicySHA256 string  `json:"policy_sha256"`
	PolicyPath   string  `json:"policy_path"`
	FocusTarget  string  `json:"focus_target,omitempty"`
	Policy       *Policy `json:"-"`
}

// Authorize runs the full gate: policy load and schema validation (fatal on
// any failure), audit record, scope check, focus check, and the
// acknowledgment precondition for active probing. Returns a non-nil error
// before any network activity is permitted; callers must treat every error
// as fatal for the run.
func Authorize(req Request, logger *slog.Logger) (*Decision, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, sha, err := LoadPolicy(req.PolicyPath)
	if err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	auditor := NewAuditor(logger, req.AuditLogPath)
	defer auditor.Close()
	auditor.Enforced(runID, req.PolicyPath, sha)

	if len(policy.Allow.Targets) == 0 {
		logger.Warn("allow.targets is empty, policy is effectively deny-all")
	}

	scope := LoadScope(req.ScopePath)
	if err := scope.RequireInScope(req.Target); err != nil {
		return nil, err
	}

	focus := LoadFocus(req.FocusPath)
	if err := focus.Require(req.Target); err != nil {
		return nil, err
	}

	if req.Active && !req.Acknowledged {
		return nil, ErrNotAcknowledged
	}

	return &Decision{
		RunID:        runID,
		PolicySHA256: sha,
		PolicyPath:   req.PolicyPath,
		FocusTarget:  focus.ResolveTarget(),
		Policy:       policy,
	}, nil
}
