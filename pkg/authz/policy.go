package authz

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the explicit allow-policy for a run. Loaded once, read-only
// thereafter.
type Policy struct {
	Version string
	Allow   Allow
	Deny    map[string]any
}

// Allow lists what the policy permits. Both lists must be non-empty.
type Allow struct {
	Targets []any
	Actions []any
}

// LoadPolicy reads, parses, and schema-validates the policy file, returning
// the policy and the SHA-256 hex digest of the raw file bytes. The digest
// goes into the audit record so policy tampering between runs is
// detectable. Every failure wraps ErrPolicyInvalid.
func LoadPolicy(path string) (*Policy, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", ErrPolicyInvalid, path, err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, "", fmt.Errorf("%w: parse %s: %v", ErrPolicyInvalid, path, err)
	}
	if data == nil {
		return nil, "", fmt.Errorf("%w: %s is not a mapping", ErrPolicyInvalid, path)
	}

	if errs := ValidatePolicySchema(data); len(errs) > 0 {
		return nil, "", fmt.Errorf("%w: schema errors in %s: %v", ErrPolicyInvalid, path, errs)
	}

	sum := sha256.Sum256(raw)
	return decodePolicy(data), hex.EncodeToString(sum[:]), nil
}

// ValidatePolicySchema checks the required policy structure:
//
//	version: "1"          # scalar
//	allow:
//	  targets: [...]      # non-empty list
//	  actions: [...]      # non-empty list
//	deny:                 # optional mapping
//
// Returns a list of error strings; any non-empty result is fatal.
func ValidatePolicySchema(data map[string]any) []string {
	var errs []string

	version, ok := data["version"]
	if !ok {
		errs = append(errs, "missing required key: version")
	} else {
		switch version.(type) {
		case string, int, int64, float64:
		default:
			errs = append(errs, fmt.Sprintf("'version' must be a scalar, got %T", version))
		}
	}

	allowRaw, ok := data["allow"]
	if !ok {
		errs = append(errs, "missing required key: allow")
	} else if allow, ok := allowRaw.(map[string]any); !ok {
		errs = append(errs, fmt.Sprintf("'allow' must be a mapping, got %T", allowRaw))
	} else {
		for _, key := range []string{"targets", "actions"} {
			v, ok := allow[key]
			if !ok {
				errs = append(errs, "missing required key under allow: "+key)
				continue
			}
			list, ok := v.([]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("allow.%s must be a list, got %T", key, v))
				continue
			}
			if len(list) == 0 {
				errs = append(errs, "allow."+key+" must not be empty")
			}
		}
	}

	if deny, ok := data["deny"]; ok && deny != nil {
		if _, ok := deny.(map[string]any); !ok {
			errs = append(errs, fmt.Sprintf("'deny' must be a mapping if present, got %T", deny))
		}
	}

	return errs
}

// decodePolicy converts schema-validated raw data into a Policy.
func decodePolicy(data map[string]any) *Policy {
	p := &Policy{
		Version: fmt.Sprintf("%v", data["version"]),
	}
	if allow, ok := data["allow"].(map[string]any); ok {
		if targets, ok := allow["targets"].([]any); ok {
			p.Allow.Targets = targets
		}
		if actions, ok := allow["actions"].([]any); ok {
			p.Allow.Actions = actions
		}
	}
	if deny, ok := data["deny"].(map[string]any); ok {
		p.Deny = deny
	}
	return p
}
