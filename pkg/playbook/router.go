// Package playbook routes detected technology stacks to the probe
// families worth running against them and attaches verification playbooks
// to confirmed findings.
package playbook

import (
	"strings"

	"github.com/bountyscan/bountyscan/pkg/finding"
)

// techRoutes maps a technology label substring to the probe families that
// pay off against that stack. Order within each route is probe priority.
var techRoutes = []struct {
	tech  string
	types []finding.Type
}{
	{"next.js", []finding.Type{finding.TypeAuth, finding.TypeSSRF, finding.TypeIDOR, finding.TypeXSS}},
	{"react", []finding.Type{finding.TypeXSS, finding.TypeAuth}},
	{"angular", []finding.Type{finding.TypeXSS, finding.TypeAuth}},
	{"vue", []finding.Type{finding.TypeXSS, finding.TypeAuth}},
	{"django", []finding.Type{finding.TypeSQLi, finding.TypeAuth, finding.TypeIDOR}},
	{"flask", []finding.Type{finding.TypeSQLi, finding.TypeAuth, finding.TypeIDOR}},
	{"express", []finding.Type{finding.TypeAuth, finding.TypeSSRF, finding.TypeIDOR}},
	{"laravel", []finding.Type{finding.TypeSQLi, finding.TypeAuth, finding.TypeIDOR}},
	{"wordpress", []finding.Type{finding.TypeAuth, finding.TypeIDOR, finding.TypeXSS}},
}

// Route maps detected technology labels to the probe families to run.
// Matching is case-insensitive substring in either direction, duplicates
// collapse preserving first-route order, and an unrecognized or empty
// stack routes to every family.
func Route(tech []string) []finding.Type {
	seen := make(map[finding.Type]bool)
	var out []finding.Type

	for _, label := range tech {
		lower := strings.ToLower(label)
		for _, route := range techRoutes {
			if !strings.Contains(lower, route.tech) && !strings.Contains(route.tech, lower) {
				continue
			}
			for _, t := range route.types {
				if !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
	}

	if len(out) == 0 {
		return finding.AllTypes()
	}
	return out
}

// Routed reports whether t is in the routed set.
func Routed(routed []finding.Type, t finding.Type) bool {
	for _, r := range routed {
		if r == t {
			return true
		}
	}
	return false
}
