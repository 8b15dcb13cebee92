package authz

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Focus restricts an entire run to one authorized target, either a static
// one or one rotated on a fixed-day cadence. Read-only after load.
type Focus struct {
	Enabled       bool     `yaml:"enabled"`
	Target        string   `yaml:"target"`
	Days          int      `yaml:"days"`
	Mode          string   `yaml:"mode"`
	RotateTargets []string `yaml:"rotate_targets"`
	RotateStart   string   `yaml:"rotate_start"`
}

// DefaultFocus returns a disabled focus lock with the standard cadence.
func DefaultFocus() Focus {
	return Focus{Days: 56, Mode: "single"}
}

// LoadFocus reads the focus config from a YAML file. Missing or malformed
// files yield the disabled default: focus is an optional restriction, not a
// required one.
func LoadFocus(path string) Focus {
	f := DefaultFocus()
	raw, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return DefaultFocus()
	}
	if f.Days <= 0 {
		f.Days = 56
	}
	if f.Mode == "" {
		f.Mode = "single"
	}
	return f
}

// ResolveTarget returns the currently authorized focus target, or "" when
// focus is disabled.
func (f Focus) ResolveTarget() string {
	return f.ResolveTargetAt(time.Now().UTC())
}

// ResolveTargetAt resolves the focus target as of now. In rotate mode the
// active index is floor(days_elapsed/period) mod len(targets); before the
// start timestamp, or when the timestamp does not parse, the first rotation
// target is used.
func (f Focus) ResolveTargetAt(now time.Time) string {
	if !f.Enabled {
		return ""
	}

	if strings.ToLower(strings.TrimSpace(f.Mode)) != "rotate" {
		return strings.ToLower(strings.TrimSpace(f.Target))
	}

	targets := make([]string, 0, len(f.RotateTargets))
	for _, t := range f.RotateTargets {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return strings.ToLower(strings.TrimSpace(f.Target))
	}

	start := strings.TrimSpace(f.RotateStart)
	if start == "" {
		return targets[0]
	}
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		startAt, err = time.Parse("2006-01-02", start)
		if err != nil {
			return targets[0]
		}
	}

	days := int(now.Sub(startAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	period := f.Days
	if period < 1 {
		period = 1
	}
	return targets[(days/period)%len(targets)]
}

// Require returns ErrFocusViolation when focus is enabled and target is not
// the resolved focus target.
func (f Focus) Require(targetName string) error {
	if !f.Enabled {
		return nil
	}
	want := f.ResolveTarget()
	if want == "" {
		return fmt.Errorf("%w: focus enabled but no target configured", ErrFocusViolation)
	}
	if strings.ToLower(strings.TrimSpace(targetName)) != want {
		return fmt.Errorf("%w: only %q is allowed", ErrFocusViolation, want)
	}
	return nil
}
