// Package xss provides reflected cross-site scripting detection.
// Each injection point is baselined with an inert value, then probed with
// an ordered markup payload list; a finding requires both a significant
// diff from the baseline and the payload surviving verbatim in the
// response.
package xss

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

// Payloads returns the ordered reflected-markup payload list.
func Payloads() []string {
	return []string{
		"<script>alert(1)</script>",
		"<img src=x onerror=alert(1)>",
		"<svg/onload=alert(1)>",
		"javascript:alert(1)",
		"\"><script>alert(1)</script>",
		"'-alert(1)-'",
		"{{constructor.constructor('alert(1)')()}}",
	}
}

// Config configures the XSS scanner.
type Config struct {
	Engine       *engine.Client
	Logger       *slog.Logger
	MaxPayloads  int
	MaxEndpoints int
}

// Scanner probes forms and query parameters for reflected markup.
type Scanner struct {
	cfg      Config
	payloads []string
}

// NewScanner creates an XSS scanner, filling config defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxPayloads <= 0 {
		cfg.MaxPayloads = defaults.MaxXSSPayloads
	}
	if cfg.MaxEndpoints <= 0 {
		cfg.MaxEndpoints = defaults.MaxFormEndpoints
	}
	return &Scanner{cfg: cfg, payloads: Payloads()}
}

// Scan probes every form and query-bearing endpoint. A failed request
// skips that candidate; the scan itself never aborts.
func (s *Scanner) Scan(ctx context.Context, targetURL string, data crawlinput.Data) []finding.Finding {
	var findings []finding.Finding

	for _, form := range data.Forms {
		if f := s.scanForm(ctx, targetURL, form); f != nil {
			findings = append(findings, *f)
		}
	}

	endpoints := data.Endpoints
	if len(endpoints) > s.cfg.MaxEndpoints {
		endpoints = endpoints[:s.cfg.MaxEndpoints]
	}
	for _, ep := range endpoints {
		if f := s.scanEndpoint(ctx, ep); f != nil {
			findings = append(findings, *f)
		}
	}

	return findings
}

// scanForm treats the whole form as one injection point: every input gets
// the same payload, the way the reflection will surface regardless of
// which field carried it.
func (s *Scanner) scanForm(ctx context.Context, targetURL string, form crawlinput.Form) *finding.Finding {
	if len(form.Inputs) == 0 {
		return nil
	}
	action := probe.ResolveURL(targetURL, form.Action)

	baseline := s.submit(ctx, action, form, defaults.BaselineValue)

	for i, payload := range s.payloads {
		if i >= s.cfg.MaxPayloads {
			break
		}
		res, err := s.submitErr(ctx, action, form, payload)
		if err != nil {
			s.cfg.Logger.Debug("xss form probe failed", slog.String("url", action), slog.String("error", err.Error()))
			continue
		}
		if !probe.DiffersDefault(baseline, res) {
			continue
		}
		if f := evaluate(action, payload, res.Body); f != nil {
			return f
		}
	}
	return nil
}

func (s *Scanner) scanEndpoint(ctx context.Context, endpoint string) *finding.Finding {
	u, err := url.Parse(endpoint)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	params := u.Query()

	baseline := s.get(ctx, endpoint, fill(params, defaults.BaselineValue))

	for i, payload := range s.payloads {
		if i >= s.cfg.MaxPayloads {
			break
		}
		res, err := s.cfg.Engine.Get(ctx, endpoint, fill(params, payload))
		if err != nil {
			s.cfg.Logger.Debug("xss query probe failed", slog.String("url", endpoint), slog.String("error", err.Error()))
			continue
		}
		if !probe.DiffersDefault(baseline, res) {
			continue
		}
		if f := evaluate(endpoint, payload, res.Body); f != nil {
			return f
		}
	}
	return nil
}

// evaluate checks for verbatim reflection: the payload must appear in the
// body, and neither its markup tag nor its trigger token may have been
// stripped by a filter.
func evaluate(url, payload, body string) *finding.Finding {
	if !strings.Contains(body, payload) {
		return nil
	}
	if strings.Contains(payload, "<script") && !strings.Contains(body, "<script") {
		return nil
	}
	if strings.Contains(payload, "alert") && !strings.Contains(body, "alert") {
		return nil
	}

	f := finding.MustNew(finding.TypeXSS, finding.SeverityHigh, url)
	f.Payload = payload
	f.Issue = "reflected"
	f.Indicators = []string{"payload_reflected_verbatim"}
	return &f
}

func (s *Scanner) submit(ctx context.Context, action string, form crawlinput.Form, value string) *probe.Result {
	res, err := s.submitErr(ctx, action, form, value)
	if err != nil {
		return nil
	}
	return &res
}

func (s *Scanner) submitErr(ctx context.Context, action string, form crawlinput.Form, value string) (probe.Result, error) {
	data := url.Values{}
	for _, input := range form.Inputs {
		data.Set(input, value)
	}
	if strings.EqualFold(form.Method, "POST") {
		return s.cfg.Engine.PostForm(ctx, action, data)
	}
	return s.cfg.Engine.Get(ctx, action, data)
}

func (s *Scanner) get(ctx context.Context, endpoint string, params url.Values) *probe.Result {
	res, err := s.cfg.Engine.Get(ctx, endpoint, params)
	if err != nil {
		return nil
	}
	return &res
}

// fill returns a copy of params with every key set to value.
func fill(params url.Values, value string) url.Values {
	out := url.Values{}
	for k := range params {
		out.Set(k, value)
	}
	return out
}
