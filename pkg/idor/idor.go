// Package idor provides insecure direct object reference detection.
// Endpoints whose path carries a numeric identifier are re-fetched with a
// fixed probe set of substitute identifiers; unauthorized access shows up
// as a 200 carrying sensitive-data keywords that differs from the
// unmodified baseline response.
package idor

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/bountyscan/bountyscan/pkg/crawlinput"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/finding"
	"github.com/bountyscan/bountyscan/pkg/probe"
)

// TestIDs is the fixed probe set substituted into numeric path segments.
func TestIDs() []string {
	return []string{"1", "2", "0", "999", "admin"}
}

// sensitiveKeywords indicate that a substituted identifier returned
// another object's data rather than an error page.
var sensitiveKeywords = []string{
	"email", "password", "address", "phone", "credit",
	"ssn", "invoice", "order", "private", "profile",
}

// Config configures the IDOR scanner.
type Config struct {
	Engine       *engine.Client
	Logger       *slog.Logger
	MaxEndpoints int
}

// Scanner probes numeric-ID path segments for direct object reference.
type Scanner struct {
	cfg Config
}

// NewScanner creates an IDOR scanner, filling config defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxEndpoints <= 0 {
		cfg.MaxEndpoints = defaults.MaxIDOREndpoints
	}
	return &Scanner{cfg: cfg}
}

// Scan probes every endpoint with a numeric path segment, short-circuiting
// each endpoint on the first confirmed finding.
func (s *Scanner) Scan(ctx context.Context, targetURL string, data crawlinput.Data) []finding.Finding {
	var findings []finding.Finding

	n := 0
	for _, ep := range data.Endpoints {
		segment, ok := numericSegment(ep)
		if !ok {
			continue
		}
		if n++; n > s.cfg.MaxEndpoints {
			break
		}
		if f := s.scanEndpoint(ctx, ep, segment); f != nil {
			findings = append(findings, *f)
		}
	}

	return findings
}

func (s *Scanner) scanEndpoint(ctx context.Context, endpoint, segment string) *finding.Finding {
	// The unmodified endpoint is the inert baseline for this injection
	// point: its own identifier is authorized by construction.
	baseline := s.get(ctx, endpoint)

	for _, id := range TestIDs() {
		if id == segment {
			continue
		}
		testURL := replaceSegment(endpoint, segment, id)

		res, err := s.cfg.Engine.Get(ctx, testURL, nil)
		if err != nil {
			s.cfg.Logger.Debug("idor probe failed", slog.String("url", testURL), slog.String("error", err.Error()))
			continue
		}
		if !probe.DiffersDefault(baseline, res) {
			continue
		}
		if f := evaluate(testURL, segment, id, res); f != nil {
			return f
		}
	}
	return nil
}

// evaluate requires a 200 and at least one sensitive-data keyword in the
// substituted response.
func evaluate(url, segment, id string, res probe.Result) *finding.Finding {
	if res.StatusCode != 200 {
		return nil
	}
	body := strings.ToLower(res.Body)
	var matched []string
	for _, kw := range sensitiveKeywords {
		if strings.Contains(body, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	f := finding.MustNew(finding.TypeIDOR, finding.SeverityHigh, url)
	f.Parameter = segment
	f.Payload = id
	f.Issue = "unauthorized_object_access"
	f.Indicators = matched
	return &f
}

// numericSegment returns the first all-numeric path segment of the
// endpoint, which marks it as following a numeric-ID convention.
func numericSegment(endpoint string) (string, bool) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false
	}
	for _, part := range strings.Split(u.Path, "/") {
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err == nil {
			return part, true
		}
	}
	return "", false
}

// replaceSegment swaps one path segment value for another, touching only
// the path so query strings survive intact.
func replaceSegment(endpoint, segment, id string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return strings.Replace(endpoint, "/"+segment, "/"+id, 1)
	}
	u.Path = strings.Replace(u.Path, "/"+segment, "/"+id, 1)
	return u.String()
}

func (s *Scanner) get(ctx context.Context, endpoint string) *probe.Result {
	res, err := s.cfg.Engine.Get(ctx, endpoint, nil)
	if err != nil {
		return nil
	}
	return &res
}
