// Package defaults provides canonical default values for the scan pipeline.
// Reference these constants instead of hardcoding magic numbers in
// individual packages.
package defaults

import "time"

// Version is the current bountyscan version.
const Version = "0.9.2"

// UserAgent is sent on every outbound probe request.
const UserAgent = "bountyscan/" + Version

// Request budget defaults.
const (
	// BudgetMaxPerMinute is the shared request budget per window.
	BudgetMaxPerMinute = 120

	// BudgetWindow is the fixed budget window length.
	BudgetWindow = time.Minute

	// BudgetPollInterval is how often a blocked caller re-checks the window.
	BudgetPollInterval = 250 * time.Millisecond
)

// Baseline-diff defaults.
const (
	// BaselineBodyDelta is the body-length difference (bytes) above which a
	// candidate response is considered significant relative to its baseline.
	BaselineBodyDelta = 50

	// BaselineValue is the inert placeholder submitted when capturing a
	// baseline response.
	BaselineValue = "bountyscan"
)

// Evidence body truncation limits per redaction level.
const (
	EvidenceBodyStandard = 2000
	EvidenceBodyFull     = 10000
)

// Per-family probe caps. Candidate lists are bounded so a large crawl
// cannot turn into an unbounded scan.
const (
	MaxPayloadsPerPoint = 10
	MaxXSSPayloads      = 3
	MaxSQLiPayloads     = 5
	MaxFormEndpoints    = 20
	MaxQueryEndpoints   = 15
	MaxSSRFEndpoints    = 20
	MaxIDOREndpoints    = 10
)

// Crawl defaults.
const (
	MaxPagesDefault = 20
)
