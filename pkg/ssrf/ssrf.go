// Package ssrf provides server-side request forgery detection. Query
// parameters whose names suggest a URL-fetching role are pointed at
// internal addresses; the server fetching them shows up as internal
// content echoed back, a connection error leaking through, or a probe
// timeout while the server dials out.
package ssrf

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bountyscan/bountyscan/pkg/crawlinput"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/finding"
	"github.com/bountyscan/bountyscan/pkg/probe"
)

// Payloads returns the ordered internal-address payload list.
func Payloads() []string {
	return []string{
		"http://localhost/",
		"http://127.0.0.1/",
		"http://[::1]/",
		"http://0.0.0.0/",
		"http://169.254.169.254/latest/meta-data/",
		"http://metadata.google.internal/",
		"http://metadata.aws.internal/",
	}
}

// proneParams are parameter names that conventionally carry a URL or
// resource reference the server will fetch.
var proneParams = map[string]bool{
	"url": true, "uri": true, "src": true, "link": true,
	"redirect": true, "next": true, "data": true, "reference": true,
	"site": true, "html": true, "val": true, "validate": true,
	"domain": true, "callback": true, "return": true, "page": true,
	"feed": true, "host": true, "port": true, "to": true,
	"out": true, "view": true, "dir": true, "show": true,
	"navigation": true, "open": true, "file": true, "document": true,
	"folder": true, "pg": true, "style": true, "doc": true,
	"img": true, "source": true, "u": true,
}

// Config configures the SSRF scanner.
type Config struct {
	Engine       *engine.Client
	Logger       *slog.Logger
	MaxEndpoints int
}

// Scanner probes URL-shaped query parameters with internal addresses.
type Scanner struct {
	cfg Config
}

// NewScanner creates an SSRF scanner, filling config defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxEndpoints <= 0 {
		cfg.MaxEndpoints = defaults.MaxSSRFEndpoints
	}
	return &Scanner{cfg: cfg}
}

// Scan probes every prone query parameter of every endpoint,
// short-circuiting each parameter on its first confirmed finding.
func (s *Scanner) Scan(ctx context.Context, targetURL string, data crawlinput.Data) []finding.Finding {
	var findings []finding.Finding

	endpoints := data.Endpoints
	if len(endpoints) > s.cfg.MaxEndpoints {
		endpoints = endpoints[:s.cfg.MaxEndpoints]
	}
	for _, ep := range endpoints {
		u, err := url.Parse(ep)
		if err != nil || u.RawQuery == "" {
			continue
		}
		for param := range u.Query() {
			if !proneParams[strings.ToLower(param)] {
				continue
			}
			if f := s.scanParam(ctx, ep, param); f != nil {
				findings = append(findings, *f)
			}
		}
	}

	return findings
}

func (s *Scanner) scanParam(ctx context.Context, endpoint, param string) *finding.Finding {
	baseline := s.get(ctx, endpoint, oneParam(param, defaults.BaselineValue))

	for _, payload := range Payloads() {
		res, err := s.cfg.Engine.Get(ctx, endpoint, oneParam(param, payload))
		if err != nil {
			// The server dialing an unroutable internal address often
			// surfaces as our own request timing out.
			if engine.IsTimeout(err) {
				f := finding.MustNew(finding.TypeSSRF, finding.SeverityMedium, endpoint)
				f.Parameter = param
				f.Payload = payload
				f.Issue = "timeout_on_internal_address"
				f.Indicators = []string{"timeout"}
				return &f
			}
			s.cfg.Logger.Debug("ssrf probe failed", slog.String("url", endpoint), slog.String("error", err.Error()))
			continue
		}
		if !probe.DiffersDefault(baseline, res) {
			continue
		}
		if f := evaluate(endpoint, param, payload, res.Body); f != nil {
			return f
		}
	}
	return nil
}

// evaluate looks for internal content or error leakage in the candidate
// body.
func evaluate(endpoint, param, payload, body string) *finding.Finding {
	lower := strings.ToLower(body)

	var indicators []string
	if strings.Contains(lower, "localhost") || strings.Contains(lower, "127.0.0.1") {
		indicators = append(indicators, "localhost_reference")
	}
	if strings.Contains(lower, "ami-id") || strings.Contains(lower, "instance-id") {
		indicators = append(indicators, "aws_metadata")
	}
	if strings.Contains(lower, "connection refused") {
		indicators = append(indicators, "connection_refused")
	}
	if len(indicators) == 0 {
		return nil
	}

	f := finding.MustNew(finding.TypeSSRF, finding.SeverityHigh, endpoint)
	f.Parameter = param
	f.Payload = payload
	f.Issue = "internal_address_fetched"
	f.Indicators = indicators
	return &f
}

func (s *Scanner) get(ctx context.Context, endpoint string, params url.Values) *probe.Result {
	res, err := s.cfg.Engine.Get(ctx, endpoint, params)
	if err != nil {
		return nil
	}
	return &res
}

func oneParam(name, value string) url.Values {
	v := url.Values{}
	v.Set(name, value)
	return v
}
