// Package triage deduplicates findings by fingerprint and assigns each
// surviving finding a confidence score derived from severity and
// corroborating signals.
package triage

import (
	"github.com/bountyscan/bountyscan/pkg/finding"
)

// Confidence scoring constants.
const (
	corroborationBonus = 0.10
	confidenceCap      = 0.99
	baseUnknown        = 0.40
)

var baseConfidence = map[finding.Severity]float64{
	finding.SeverityCritical: 0.90,
	finding.SeverityHigh:     0.75,
	finding.SeverityMedium:   0.50,
	finding.SeverityLow:      0.30,
}

// Triage deduplicates findings by fingerprint, first occurrence winning,
// and stamps each survivor with its confidence score. Input order is
// preserved; the input slice is not modified.
func Triage(findings []finding.Finding) []finding.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]finding.Finding, 0, len(findings))

	for _, f := range findings {
		fp := f.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		f.Confidence = Confidence(f)
		out = append(out, f)
	}
	return out
}

// Confidence scores a finding: a severity-derived base, plus a bonus when
// indicators or details corroborate it, capped below certainty.
func Confidence(f finding.Finding) float64 {
	score, ok := baseConfidence[f.Severity]
	if !ok {
		score = baseUnknown
	}
	if f.Corroborated() {
		score += corroborationBonus
	}
	if score > confidenceCap {
		score = confidenceCap
	}
	return score
}
