package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	f, err := New(TypeXSS, SeverityHigh, "https://example.com/search")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if f.Type != TypeXSS || f.Severity != SeverityHigh {
		t.Errorf("New() = %+v", f)
	}
	if f.Timestamp.IsZero() || f.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp not stamped in UTC: %v", f.Timestamp)
	}
}

func TestNewRejectsInvalidEnums(t *testing.T) {
	if _, err := New(Type("rce"), SeverityHigh, "u"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("invalid type error = %v", err)
	}
	if _, err := New(TypeXSS, Severity("high"), "u"); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("invalid severity error = %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := MustNew(TypeSQLi, SeverityCritical, "https://example.com/item")
	a.Parameter = "id"
	a.Payload = "' OR '1'='1"
	a.Issue = "error-based"

	b := a
	b.Indicators = []string{"something"}
	b.Confidence = 0.9
	b.Timestamp = a.Timestamp.Add(time.Hour)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint changed with non-identity fields")
	}

	c := a
	c.Payload = "admin'--"
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint ignored payload")
	}

	sum := sha256.Sum256([]byte("SQLi|https://example.com/item|id|' OR '1'='1|error-based"))
	if a.Fingerprint() != hex.EncodeToString(sum[:]) {
		t.Error("fingerprint tuple encoding drifted")
	}
}

func TestSeverityScore(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Score() <= order[i].Score() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
	if Severity("nope").Score() != 0 {
		t.Error("unknown severity should score 0")
	}
}

func TestCorroborated(t *testing.T) {
	f := MustNew(TypeAuth, SeverityLow, "u")
	if f.Corroborated() {
		t.Error("empty finding should not be corroborated")
	}
	f.Details = []string{"csp_missing"}
	if !f.Corroborated() {
		t.Error("details should corroborate")
	}
}
