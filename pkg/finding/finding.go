// Package finding defines the closed Finding record emitted by the probe
// families, its type and severity enums, and the fingerprint used for
// de-duplication.
package finding

import (
	"time"
)

// Type identifies the vulnerability class of a finding.
type Type string

const (
	TypeXSS  Type = "XSS"
	TypeSQLi Type = "SQLi"
	TypeIDOR Type = "IDOR"
	TypeSSRF Type = "SSRF"
	TypeAuth Type = "Auth"
)

// IsValid reports whether t is a recognized finding type.
func (t Type) IsValid() bool {
	switch t {
	case TypeXSS, TypeSQLi, TypeIDOR, TypeSSRF, TypeAuth:
		return true
	}
	return false
}

// AllTypes returns the full probe family set in canonical order.
func AllTypes() []Type {
	return []Type{TypeXSS, TypeSQLi, TypeIDOR, TypeSSRF, TypeAuth}
}

// Playbook is a remediation/verification checklist attached to a finding
// after triage.
type Playbook struct {
	Steps    []string `json:"steps,omitempty" yaml:"steps"`
	Evidence []string `json:"evidence,omitempty" yaml:"evidence"`
}

// Finding is one detected issue. It is immutable after construction except
// for Confidence, which triage populates, and Playbook, which routing may
// attach.
type Finding struct {
	Type       Type      `json:"type"`
	URL        string    `json:"url,omitempty"`
	Parameter  string    `json:"parameter,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	Issue      string    `json:"issue,omitempty"`
	Indicators []string  `json:"indicators,omitempty"`
	Details    []string  `json:"details,omitempty"`
	Severity   Severity  `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence,omitempty"`
	Playbook   *Playbook `json:"playbook,omitempty"`
}

// New creates a validated Finding stamped with the current UTC time.
func New(t Type, sev Severity, url string) (Finding, error) {
	if !t.IsValid() {
		return Finding{}, ErrInvalidType
	}
	if !sev.IsValid() {
		return Finding{}, ErrInvalidSeverity
	}
	return Finding{
		Type:      t,
		Severity:  sev,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}, nil
}

// MustNew is New for compile-time-constant arguments; it panics on
// invalid enums. Probe families use it with their fixed type/severity.
func MustNew(t Type, sev Severity, url string) Finding {
	f, err := New(t, sev, url)
	if err != nil {
		panic(err)
	}
	return f
}

// Corroborated reports whether the finding carries any supporting
// indicator or detail. Triage grants a confidence bonus for this.
func (f Finding) Corroborated() bool {
	return len(f.Indicators) > 0 || len(f.Details) > 0
}
