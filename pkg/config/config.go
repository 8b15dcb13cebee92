// Package config loads run profiles and budget settings. Missing files
// fall back to embedded defaults so a bare checkout can run; the
// authorization policy is deliberately NOT handled here, because policy
// absence must be fatal (see pkg/authz).
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bountyscan/bountyscan/pkg/defaults"
)

// Profile describes how aggressive a run may be.
type Profile struct {
	// ActiveTests enables the payload-sending probe families. The passive
	// profile keeps them off regardless of CLI flags.
	ActiveTests bool `yaml:"active_tests"`

	// MaxPages caps how many pages the crawl collaborator may fetch.
	MaxPages int `yaml:"max_pages"`
}

// Profiles maps profile name to settings.
type Profiles struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in passive/cautious/active set.
func DefaultProfiles() Profiles {
	return Profiles{Profiles: map[string]Profile{
		"passive":  {ActiveTests: false, MaxPages: 10},
		"cautious": {ActiveTests: true, MaxPages: 20},
		"active":   {ActiveTests: true, MaxPages: 50},
	}}
}

// LoadProfiles reads profile config from path, falling back to defaults on
// any failure.
func LoadProfiles(path string) Profiles {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultProfiles()
	}
	var p Profiles
	if err := yaml.Unmarshal(raw, &p); err != nil || len(p.Profiles) == 0 {
		return DefaultProfiles()
	}
	return p
}

// Get returns the named profile, falling back to cautious for unknown
// names.
func (p Profiles) Get(name string) Profile {
	if prof, ok := p.Profiles[name]; ok {
		if prof.MaxPages <= 0 {
			prof.MaxPages = defaults.MaxPagesDefault
		}
		return prof
	}
	return Profile{ActiveTests: true, MaxPages: defaults.MaxPagesDefault}
}

// BudgetConfig holds request budget and evidence settings.
type BudgetConfig struct {
	Requests struct {
		MaxPerMinute int `yaml:"max_per_minute"`
		MaxPerRun    int `yaml:"max_per_run"`
	} `yaml:"requests"`
	EvidenceLevel string `yaml:"evidence_level"`
}

// DefaultBudget returns the standard budget settings.
func DefaultBudget() BudgetConfig {
	var b BudgetConfig
	b.Requests.MaxPerMinute = defaults.BudgetMaxPerMinute
	b.Requests.MaxPerRun = 1000
	b.EvidenceLevel = "standard"
	return b
}

// LoadBudget reads budget config from path, falling back to defaults on any
// failure.
func LoadBudget(path string) BudgetConfig {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultBudget()
	}
	var b BudgetConfig
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return DefaultBudget()
	}
	if b.Requests.MaxPerMinute <= 0 {
		b.Requests.MaxPerMinute = defaults.BudgetMaxPerMinute
	}
	if b.Requests.MaxPerRun <= 0 {
		b.Requests.MaxPerRun = 1000
	}
	if b.EvidenceLevel == "" {
		b.EvidenceLevel = "standard"
	}
	return b
}
