package probe

import "testing"

func TestDiffers(t *testing.T) {
	base := &Result{StatusCode: 200, BodyLength: 1000}

	tests := []struct {
		name      string
		baseline  *Result
		candidate Result
		want      bool
	}{
		{"nil baseline is significant", nil, Result{StatusCode: 200, BodyLength: 1000}, true},
		{"identical is not", base, Result{StatusCode: 200, BodyLength: 1000}, false},
		{"status mismatch is", base, Result{StatusCode: 500, BodyLength: 1000}, true},
		{"delta at threshold is not", base, Result{StatusCode: 200, BodyLength: 1050}, false},
		{"delta past threshold is", base, Result{StatusCode: 200, BodyLength: 1051}, true},
		{"shrinking body counts too", base, Result{StatusCode: 200, BodyLength: 900}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiffersDefault(tt.baseline, tt.candidate); got != tt.want {
				t.Errorf("DiffersDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	r := Result{Body: "abcdefgh"}
	if got := r.Excerpt(4); got != "abcd" {
		t.Errorf("Excerpt(4) = %q", got)
	}
	if got := r.Excerpt(100); got != "abcdefgh" {
		t.Errorf("Excerpt(100) = %q", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base string
		ref  string
		want string
	}{
		{"https://example.com/app/", "/login", "https://example.com/login"},
		{"https://example.com/app/", "submit", "https://example.com/app/submit"},
		{"https://example.com", "https://other.example.com/x", "https://other.example.com/x"},
	}

	for _, tt := range tests {
		if got := ResolveURL(tt.base, tt.ref); got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
