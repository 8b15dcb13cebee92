package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the SHA-256 hex digest of the finding's identity
// tuple (type, url, parameter, payload, issue). Two findings with the same
// tuple are the same finding regardless of discovery order; indicators,
// details, and timestamps do not participate.
func (f Finding) Fingerprint() string {
	raw := strings.Join([]string{
		string(f.Type),
		f.URL,
		f.Parameter,
		f.Payload,
		f.Issue,
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
