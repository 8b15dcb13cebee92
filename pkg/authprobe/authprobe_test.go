package authprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bountyscan/bountyscan/pkg/budget"
	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/finding"
)

func testEngine(srv *httptest.Server) *engine.Client {
	return engine.New(engine.Config{
		Budget:            budget.New(10000, time.Minute),
		RequestsPerSecond: 10000,
		Client:            srv.Client(),
	})
}

func byIssue(findings []finding.Finding) map[string]finding.Finding {
	m := make(map[string]finding.Finding, len(findings))
	for _, f := range findings {
		m[f.Issue] = f
	}
	return m
}

func TestScanWeakLoginPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<form action="http://example.com/login" method="post">
			<input name="user"><input type="password" name="pass">
		</form>`))
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	f, ok := got["login_page_issues"]
	if !ok {
		t.Fatal("login_page_issues not reported")
	}
	if f.Severity != finding.SeverityMedium {
		t.Errorf("severity = %v", f.Severity)
	}
	details := map[string]bool{}
	for _, d := range f.Details {
		details[d] = true
	}
	if !details["form_submits_http"] {
		t.Errorf("details = %v, want form_submits_http", f.Details)
	}
	if !details["no_min_password_length"] {
		t.Errorf("details = %v, want no_min_password_length", f.Details)
	}
}

func TestScanLoginPageWithMinLengthIsQuieter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<form action="/login" method="post">
			<input type="password" name="pass" minlength="12">
		</form>`))
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	if _, ok := got["login_page_issues"]; ok {
		t.Error("login page with https action and minlength should not be flagged")
	}
}

func TestScanResetPageEnumeration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forgot" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<p>User not found. Follow the link sent to you: /confirm?token=abc123</p>`))
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	f, ok := got["password_reset_issues"]
	if !ok {
		t.Fatal("password_reset_issues not reported")
	}
	details := map[string]bool{}
	for _, d := range f.Details {
		details[d] = true
	}
	if !details["token_in_url"] || !details["possible_user_enum"] {
		t.Errorf("details = %v", f.Details)
	}
}

func TestScanMissingSecurityHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	f, ok := got["missing_security_headers"]
	if !ok {
		t.Fatal("missing_security_headers not reported")
	}
	if f.Severity != finding.SeverityLow {
		t.Errorf("severity = %v", f.Severity)
	}
	if len(f.Details) != 4 {
		t.Errorf("details = %v, all four headers are absent", f.Details)
	}
}

func TestScanPresentSecurityHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=63072000")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'self'")
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	if _, ok := got["missing_security_headers"]; ok {
		t.Error("fully hardened response should not be flagged")
	}
}

func TestScanBasicAuthExposed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Basic realm="internal"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	if _, ok := got["basic_auth_enabled"]; !ok {
		t.Error("basic_auth_enabled not reported")
	}
}

func TestScanStaticSessionCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "deadbeef"})
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	f, ok := got["static_session_cookie"]
	if !ok {
		t.Fatal("static_session_cookie not reported")
	}
	if f.Severity != finding.SeverityHigh {
		t.Errorf("severity = %v", f.Severity)
	}
}

func TestScanRotatingSessionCookie(t *testing.T) {
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		http.SetCookie(w, &http.Cookie{Name: "session", Value: string(rune('a' + n))})
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScanner(Config{Engine: testEngine(srv)})
	got := byIssue(s.Scan(context.Background(), srv.URL))

	if _, ok := got["static_session_cookie"]; ok {
		t.Error("per-request cookies should not be flagged")
	}
}
