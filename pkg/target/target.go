// Package target normalizes scan targets into explicit origins.
// A bare hostname defaults to HTTPS; loopback and local names default to
// HTTP so a dev instance does not fail the TLS handshake before the first
// probe.
package target

import (
	"net/url"
	"strings"
)

// localHosts are names that default to HTTP instead of HTTPS.
var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
	"0.0.0.0":   true,
}

// Target is a normalized origin: explicit scheme plus host[:port].
type Target struct {
	Raw    string `json:"raw"`
	URL    string `json:"url"`
	Scheme string `json:"scheme"`
}

// Normalize builds a Target from raw input. forceScheme ("http" or
// "https") overrides the default scheme choice; pass "" to auto-select.
func Normalize(raw, forceScheme string) Target {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return Target{
			Raw:    raw,
			URL:    raw,
			Scheme: raw[:strings.Index(raw, "://")],
		}
	}

	host := strings.ToLower(strings.SplitN(strings.SplitN(raw, "/", 2)[0], ":", 2)[0])
	scheme := forceScheme
	if scheme == "" {
		if localHosts[host] {
			scheme = "http"
		} else {
			scheme = "https"
		}
	}

	return Target{
		Raw:    raw,
		URL:    scheme + "://" + raw,
		Scheme: scheme,
	}
}

// Host returns the bare lowercase hostname of the target, without port,
// scheme, or trailing dot. Empty when the URL does not parse.
func (t Target) Host() string {
	u, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}
