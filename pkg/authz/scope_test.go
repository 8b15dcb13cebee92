package authz

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadScopeFailsClosed(t *testing.T) {
	s := LoadScope(filepath.Join(t.TempDir(), "missing.json"))
	if s.InScope("example.com") {
		t.Error("missing scope file must deny everything")
	}

	path := writeFile(t, "scope.json", "not json")
	s = LoadScope(path)
	if s.InScope("example.com") {
		t.Error("malformed scope file must deny everything")
	}
}

func TestInScopeDomains(t *testing.T) {
	s := Scope{Domains: []string{"example.com"}}

	tests := []struct {
		target string
		want   bool
	}{
		{"example.com", true},
		{"EXAMPLE.COM", true},
		{"sub.example.com", true},
		{"deep.sub.example.com", true},
		{"https://sub.example.com/path", true},
		{"evil.com", false},
		{"notexample.com", false},
		{"example.com.evil.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := s.InScope(tt.target); got != tt.want {
			t.Errorf("InScope(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestInScopeIPs(t *testing.T) {
	s := Scope{IPs: []string{"127.0.0.1", "10.0.0.5"}}

	if !s.InScope("127.0.0.1") {
		t.Error("listed IP should be in scope")
	}
	if s.InScope("10.0.0.6") {
		t.Error("unlisted IP should be out of scope")
	}
	if s.InScope("192.168.0.1") {
		t.Error("IP must not match the domain list")
	}
}

func TestRequireInScope(t *testing.T) {
	s := Scope{Domains: []string{"example.com"}}
	if err := s.RequireInScope("app.example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := s.RequireInScope("evil.com")
	if !errors.Is(err, ErrOutOfScope) {
		t.Errorf("error = %v, want ErrOutOfScope", err)
	}
}
