package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bountyscan/bountyscan/pkg/finding"
)

func mk(t finding.Type, sev finding.Severity, url, payload string) finding.Finding {
	f := finding.MustNew(t, sev, url)
	f.Payload = payload
	return f
}

func TestTriageDeduplicates(t *testing.T) {
	a := mk(finding.TypeXSS, finding.SeverityHigh, "https://example.com/s", "<script>alert(1)</script>")
	dup := a
	dup.Indicators = []string{"payload_reflected_verbatim"}
	b := mk(finding.TypeSQLi, finding.SeverityCritical, "https://example.com/item", "' OR '1'='1")

	out := Triage([]finding.Finding{a, dup, b})
	assert.Len(t, out, 2)
	assert.Equal(t, finding.TypeXSS, out[0].Type, "first occurrence wins, order preserved")
	assert.Equal(t, finding.TypeSQLi, out[1].Type)

	again := Triage(out)
	assert.Len(t, again, 2, "triage is idempotent")
}

func TestTriageOrderIndependentSet(t *testing.T) {
	a := mk(finding.TypeXSS, finding.SeverityHigh, "u1", "p1")
	b := mk(finding.TypeSSRF, finding.SeverityMedium, "u2", "p2")

	fwd := Triage([]finding.Finding{a, b, a})
	rev := Triage([]finding.Finding{b, a, b})

	fps := func(fs []finding.Finding) map[string]bool {
		m := map[string]bool{}
		for _, f := range fs {
			m[f.Fingerprint()] = true
		}
		return m
	}
	assert.Equal(t, fps(fwd), fps(rev))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name         string
		sev          finding.Severity
		corroborated bool
		want         float64
	}{
		{"critical corroborated caps", finding.SeverityCritical, true, 0.99},
		{"critical bare", finding.SeverityCritical, false, 0.90},
		{"high corroborated", finding.SeverityHigh, true, 0.85},
		{"medium bare", finding.SeverityMedium, false, 0.50},
		{"low bare", finding.SeverityLow, false, 0.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := finding.Finding{Type: finding.TypeXSS, Severity: tt.sev}
			if tt.corroborated {
				f.Indicators = []string{"x"}
			}
			assert.InDelta(t, tt.want, Confidence(f), 1e-9)
		})
	}
}

func TestConfidenceUnknownSeverity(t *testing.T) {
	f := finding.Finding{Type: finding.TypeXSS, Severity: "WEIRD"}
	assert.InDelta(t, 0.40, Confidence(f), 1e-9)
	f.Details = []string{"d"}
	assert.InDelta(t, 0.50, Confidence(f), 1e-9)
}

func TestConfidenceBounds(t *testing.T) {
	for _, sev := range []finding.Severity{
		finding.SeverityCritical, finding.SeverityHigh,
		finding.SeverityMedium, finding.SeverityLow,
	} {
		for _, corroborated := range []bool{false, true} {
			f := finding.Finding{Type: finding.TypeXSS, Severity: sev}
			if corroborated {
				f.Indicators = []string{"x"}
			}
			c := Confidence(f)
			assert.GreaterOrEqual(t, c, 0.30)
			assert.LessOrEqual(t, c, 0.99)
		}
	}
}

func TestTriageStampsConfidence(t *testing.T) {
	f := mk(finding.TypeSQLi, finding.SeverityCritical, "u", "p")
	f.Indicators = []string{"sig"}

	out := Triage([]finding.Finding{f})
	assert.Len(t, out, 1)
	assert.InDelta(t, 0.99, out[0].Confidence, 1e-9)
}
