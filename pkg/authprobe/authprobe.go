// Package authprobe provides structural authentication checks: login and
// password-reset page weaknesses, missing security headers, HTTP basic
// auth exposure, and static session cookies. Unlike the payload families
// these checks need no baseline; the page structure itself is the signal.
package authprobe

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/finding"
	"github.com/bountyscan/bountyscan/pkg/probe"
)

// LoginPaths are the conventional login page locations probed per target.
func LoginPaths() []string {
	return []string{"/login", "/signin", "/auth", "/admin"}
}

// ResetPaths are the conventional password-reset page locations.
func ResetPaths() []string {
	return []string{"/reset", "/forgot", "/password-reset", "/lost-password"}
}

// securityHeaders maps required response headers to the detail label
// reported when one is missing.
var securityHeaders = []struct {
	header string
	detail string
}{
	{"Strict-Transport-Security", "HSTS_missing"},
	{"X-Frame-Options", "clickjacking_protection_missing"},
	{"X-Content-Type-Options", "nosniff_missing"},
	{"Content-Security-Policy", "csp_missing"},
}

var (
	httpActionRe = regexp.MustCompile(`(?i)action=["']?http://`)
	minLengthRe  = regexp.MustCompile(`(?i)min[-_]?length`)
	tokenInURLRe = regexp.MustCompile(`(?i)[?&]token=`)
)

// Config configures the auth scanner.
type Config struct {
	Engine *engine.Client
	Logger *slog.Logger
}

// Scanner runs the structural authentication checks.
type Scanner struct {
	cfg Config
}

// NewScanner creates an auth scanner, filling config defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scanner{cfg: cfg}
}

// Scan runs every structural check against the target.
func (s *Scanner) Scan(ctx context.Context, targetURL string) []finding.Finding {
	var findings []finding.Finding

	for _, path := range LoginPaths() {
		if f := s.checkLogin(ctx, targetURL, path); f != nil {
			findings = append(findings, *f)
		}
	}
	for _, path := range ResetPaths() {
		if f := s.checkReset(ctx, targetURL, path); f != nil {
			findings = append(findings, *f)
		}
	}
	findings = append(findings, s.checkHeaders(ctx, targetURL)...)
	if f := s.checkSessionCookie(ctx, targetURL); f != nil {
		findings = append(findings, *f)
	}

	return findings
}

func (s *Scanner) checkLogin(ctx context.Context, targetURL, path string) *finding.Finding {
	pageURL := probe.ResolveURL(targetURL, path)
	res, err := s.cfg.Engine.Get(ctx, pageURL, nil)
	if err != nil {
		s.cfg.Logger.Debug("login page probe failed", slog.String("url", pageURL), slog.String("error", err.Error()))
		return nil
	}
	if res.StatusCode != 200 {
		return nil
	}

	var details []string
	if httpActionRe.MatchString(res.Body) {
		details = append(details, "form_submits_http")
	}
	lower := strings.ToLower(res.Body)
	if strings.Contains(lower, "password") && !minLengthRe.MatchString(res.Body) {
		details = append(details, "no_min_password_length")
	}
	if len(details) == 0 {
		return nil
	}

	f := finding.MustNew(finding.TypeAuth, finding.SeverityMedium, pageURL)
	f.Issue = "login_page_issues"
	f.Details = details
	return &f
}

func (s *Scanner) checkReset(ctx context.Context, targetURL, path string) *finding.Finding {
	pageURL := probe.ResolveURL(targetURL, path)
	res, err := s.cfg.Engine.Get(ctx, pageURL, nil)
	if err != nil {
		s.cfg.Logger.Debug("reset page probe failed", slog.String("url", pageURL), slog.String("error", err.Error()))
		return nil
	}
	if res.StatusCode != 200 {
		return nil
	}

	var details []string
	if tokenInURLRe.MatchString(res.Body) {
		details = append(details, "token_in_url")
	}
	lower := strings.ToLower(res.Body)
	if strings.Contains(lower, "not found") || strings.Contains(lower, "invalid") {
		details = append(details, "possible_user_enum")
	}
	if len(details) == 0 {
		return nil
	}

	f := finding.MustNew(finding.TypeAuth, finding.SeverityMedium, pageURL)
	f.Issue = "password_reset_issues"
	f.Details = details
	return &f
}

func (s *Scanner) checkHeaders(ctx context.Context, targetURL string) []finding.Finding {
	res, err := s.cfg.Engine.Get(ctx, targetURL, nil)
	if err != nil {
		s.cfg.Logger.Debug("header probe failed", slog.String("url", targetURL), slog.String("error", err.Error()))
		return nil
	}

	var findings []finding.Finding

	if res.Header.Get("WWW-Authenticate") != "" {
		f := finding.MustNew(finding.TypeAuth, finding.SeverityLow, targetURL)
		f.Issue = "basic_auth_enabled"
		f.Details = []string{res.Header.Get("WWW-Authenticate")}
		findings = append(findings, f)
	}

	var missing []string
	for _, sh := range securityHeaders {
		if res.Header.Get(sh.header) == "" {
			missing = append(missing, sh.detail)
		}
	}
	if len(missing) > 0 {
		f := finding.MustNew(finding.TypeAuth, finding.SeverityLow, targetURL)
		f.Issue = "missing_security_headers"
		f.Details = missing
		findings = append(findings, f)
	}

	return findings
}

// checkSessionCookie issues two independent requests and compares the
// session cookies handed out. Fresh sessions receiving the same non-empty
// cookie means the server is not generating per-session values.
func (s *Scanner) checkSessionCookie(ctx context.Context, targetURL string) *finding.Finding {
	first := s.sessionCookies(ctx, targetURL)
	if len(first) == 0 {
		return nil
	}
	second := s.sessionCookies(ctx, targetURL)
	if len(second) != len(first) {
		return nil
	}
	for i := range first {
		if first[i] != second[i] {
			return nil
		}
	}

	f := finding.MustNew(finding.TypeAuth, finding.SeverityHigh, targetURL)
	f.Issue = "static_session_cookie"
	f.Indicators = []string{"identical_cookies_across_sessions"}
	return &f
}

func (s *Scanner) sessionCookies(ctx context.Context, targetURL string) []string {
	res, err := s.cfg.Engine.Get(ctx, targetURL, nil)
	if err != nil {
		s.cfg.Logger.Debug("cookie probe failed", slog.String("url", targetURL), slog.String("error", err.Error()))
		return nil
	}
	cookies := res.Header.Values("Set-Cookie")
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
