// Package evidence persists a redacted snapshot of every probe call.
// Records are write-once JSON files; the redaction level is fixed when the
// recorder is constructed and applied uniformly to every record.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bountyscan/bountyscan/pkg/defaults"
)

// Level controls how much of a response snapshot is retained.
type Level string

const (
	// LevelLite keeps status and headers only.
	LevelLite Level = "lite"

	// LevelStandard keeps the body truncated to 2,000 bytes.
	LevelStandard Level = "standard"

	// LevelFull keeps the body truncated to 10,000 bytes.
	LevelFull Level = "full"
)

// ParseLevel maps a config string to a Level, defaulting to standard for
// unrecognized values.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelLite:
		return LevelLite
	case LevelFull:
		return LevelFull
	default:
		return LevelStandard
	}
}

// Snapshot is the redacted response half of a record.
type Snapshot struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Record is one persisted probe call.
type Record struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	RequestPayload map[string]string `json:"request,omitempty"`
	Response       Snapshot          `json:"response"`
	Timestamp      string            `json:"timestamp"`
}

// Recorder writes evidence records under <outputDir>/evidence.
type Recorder struct {
	dir   string
	level Level

	mu sync.Mutex
}

// NewRecorder creates the evidence directory and returns a Recorder bound
// to the given redaction level.
func NewRecorder(outputDir string, level Level) (*Recorder, error) {
	dir := filepath.Join(outputDir, "evidence")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("evidence: create dir: %w", err)
	}
	return &Recorder{dir: dir, level: level}, nil
}

// Level returns the recorder's fixed redaction level.
func (r *Recorder) Level() Level {
	return r.level
}

// Record applies the redaction level and writes one JSON file, returning
// its path. Writes are serialized so a future parallel probe phase stays
// append-safe.
func (r *Recorder) Record(rec Record) (string, error) {
	rec.Response = r.redact(rec.Response)
	stamp := time.Now().UTC().Format("20060102_150405.000000000")
	if rec.Timestamp == "" {
		rec.Timestamp = stamp
	}

	name := fmt.Sprintf("http_%s_%s.json", stamp, slug(rec.URL))
	path := filepath.Join(r.dir, name)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("evidence: marshal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("evidence: write: %w", err)
	}
	return path, nil
}

func (r *Recorder) redact(s Snapshot) Snapshot {
	switch r.level {
	case LevelLite:
		s.Body = ""
	case LevelFull:
		s.Body = truncate(s.Body, defaults.EvidenceBodyFull)
	default:
		s.Body = truncate(s.Body, defaults.EvidenceBodyStandard)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// slug converts a URL into a filesystem-safe fragment, capped at 80 bytes.
func slug(url string) string {
	var b strings.Builder
	for _, ch := range url {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '.', ch == '_', ch == '-':
			b.WriteRune(ch)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 80 {
			break
		}
	}
	return b.String()
}
