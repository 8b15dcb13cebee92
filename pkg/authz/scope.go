package authz

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Scope is the domain/IP allow-list for a run. Read-only after load.
type Scope struct {
	Domains []string `json:"domains"`
	IPs     []string `json:"ips"`
	Notes   string   `json:"notes"`
}

// LoadScope reads the scope list from a JSON file. A missing or unreadable
// file yields an empty scope, which denies every target: the gate fails
// closed without treating an absent file as a configuration error.
func LoadScope(path string) Scope {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scope{}
	}
	var s Scope
	if err := json.Unmarshal(raw, &s); err != nil {
		return Scope{}
	}
	for i, d := range s.Domains {
		s.Domains[i] = strings.TrimSuffix(strings.ToLower(d), ".")
	}
	return s
}

// InScope reports whether target's host is covered by the allow-list.
// Domains match exactly or as a suffix on a "."-boundary; IPs match
// literally.
func (s Scope) InScope(target string) bool {
	host := normalizeHost(target)
	if host == "" {
		return false
	}

	if net.ParseIP(host) != nil {
		for _, ip := range s.IPs {
			if host == strings.TrimSpace(ip) {
				return true
			}
		}
		return false
	}

	for _, d := range s.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// RequireInScope returns ErrOutOfScope when target is not allow-listed.
func (s Scope) RequireInScope(target string) error {
	if !s.InScope(target) {
		return fmt.Errorf("%w: %q not in scope allow-list", ErrOutOfScope, target)
	}
	return nil
}

// normalizeHost reduces a URL or bare host to a lowercase hostname.
func normalizeHost(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return ""
		}
		return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	}
	host := strings.SplitN(strings.SplitN(target, "/", 2)[0], ":", 2)[0]
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
