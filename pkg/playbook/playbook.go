package playbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bountyscan/bountyscan/pkg/finding"
)

// fileTypes maps a playbook file basename (extension stripped, lowered)
// to its finding type.
var fileTypes = map[string]finding.Type{
	"xss":  finding.TypeXSS,
	"sqli": finding.TypeSQLi,
	"idor": finding.TypeIDOR,
	"ssrf": finding.TypeSSRF,
	"auth": finding.TypeAuth,
}

// Defaults returns the built-in verification playbooks, used when no
// playbook directory is configured or a type has no file.
func Defaults() map[finding.Type]finding.Playbook {
	return map[finding.Type]finding.Playbook{
		finding.TypeXSS: {
			Steps: []string{
				"Reproduce the reflection manually with the recorded payload",
				"Confirm the payload executes in a browser context",
				"Identify the output context and any encoding applied",
			},
			Evidence: []string{"request and response pair", "screenshot of execution"},
		},
		finding.TypeSQLi: {
			Steps: []string{
				"Replay the payload and capture the database error verbatim",
				"Confirm the error is payload-dependent with a control request",
				"Identify the database engine from the error signature",
			},
			Evidence: []string{"error response body", "baseline response for comparison"},
		},
		finding.TypeIDOR: {
			Steps: []string{
				"Fetch the original object with an authorized session",
				"Fetch the substituted identifier and diff the two responses",
				"Confirm the leaked fields belong to another principal",
			},
			Evidence: []string{"both responses", "field-level diff"},
		},
		finding.TypeSSRF: {
			Steps: []string{
				"Replay the internal-address payload and capture the response",
				"Point the parameter at a collaborator host and watch for a callback",
				"Enumerate reachable internal services only if scope allows",
			},
			Evidence: []string{"response showing internal content", "callback log entry"},
		},
		finding.TypeAuth: {
			Steps: []string{
				"Reproduce the structural weakness on the recorded page",
				"Assess exploitability in combination with other findings",
			},
			Evidence: []string{"page source or header capture"},
		},
	}
}

// LoadAll reads per-type playbook YAML files from dir, overlaying the
// built-in defaults. Files that fail to parse are reported and skipped;
// the defaults for that type survive.
func LoadAll(dir string) (map[finding.Type]finding.Playbook, error) {
	books := Defaults()
	if dir == "" {
		return books, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return books, fmt.Errorf("read playbook dir: %w", err)
	}

	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		t, ok := fileTypes[strings.ToLower(strings.TrimSuffix(name, ext))]
		if !ok {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("read playbook %s: %w", name, err)
			}
			continue
		}
		var pb finding.Playbook
		if err := yaml.Unmarshal(raw, &pb); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("parse playbook %s: %w", name, err)
			}
			continue
		}
		books[t] = pb
	}

	return books, firstErr
}

// Attach copies the findings, pointing each whose type is in the routed
// set at the playbook for its type. Unrouted types and types without a
// playbook pass through unchanged.
func Attach(findings []finding.Finding, routed []finding.Type, books map[finding.Type]finding.Playbook) []finding.Finding {
	out := make([]finding.Finding, len(findings))
	for i, f := range findings {
		if Routed(routed, f.Type) {
			if pb, ok := books[f.Type]; ok {
				copied := pb
				f.Playbook = &copied
			}
		}
		out[i] = f
	}
	return out
}
