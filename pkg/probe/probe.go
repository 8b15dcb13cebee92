// Package probe defines the immutable per-call probe result and the
// baseline-diff comparator every injection-style probe family builds on.
package probe

import (
	"net/http"

	"github.com/bountyscan/bountyscan/pkg/defaults"
)

// Result captures one HTTP probe response. Never mutated after creation.
type Result struct {
	StatusCode int
	BodyLength int
	Body       string
	Header     http.Header
}

// Excerpt returns at most n bytes of the response body.
func (r Result) Excerpt(n int) string {
	if len(r.Body) <= n {
		return r.Body
	}
	return r.Body[:n]
}

// Differs reports whether candidate is significant relative to baseline:
// status code mismatch, or a body-length delta beyond minDelta bytes.
//
// A nil baseline (the baseline fetch itself failed) treats every candidate
// as significant. That deliberately favors recall over precision: a target
// that refuses the inert request should not silence real reflections.
func Differs(baseline *Result, candidate Result, minDelta int) bool {
	if baseline == nil {
		return true
	}
	if baseline.StatusCode != candidate.StatusCode {
		return true
	}
	delta := baseline.BodyLength - candidate.BodyLength
	if delta < 0 {
		delta = -delta
	}
	return delta > minDelta
}

// DiffersDefault is Differs with the standard 50-byte threshold.
func DiffersDefault(baseline *Result, candidate Result) bool {
	return Differs(baseline, candidate, defaults.BaselineBodyDelta)
}
