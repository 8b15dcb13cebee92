// Package httpclient provides a shared, pooled HTTP client factory for the
// probe pipeline. All probe families draw from the same connection pool so
// a run reuses connections against its single target.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// Timeouts tuned per workload.
const (
	// TimeoutProbing is for payload probes where slow responses are a signal
	// in themselves (SSRF timeout detection relies on this bound).
	TimeoutProbing = 10 * time.Second

	// TimeoutScanning is for structural checks and form submission.
	TimeoutScanning = 15 * time.Second
)

// Config holds HTTP client construction options.
type Config struct {
	// Timeout is the total request timeout.
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. Defaults on:
	// staging targets with self-signed certs are routine in authorized
	// testing.
	InsecureSkipVerify bool

	// FollowRedirects enables redirect following. Probes keep this off so
	// the first response is the one evaluated.
	FollowRedirects bool

	// MaxIdleConns bounds idle connections across hosts.
	MaxIdleConns int

	// MaxConnsPerHost bounds connections per host.
	MaxConnsPerHost int
}

// DefaultConfig returns defaults for a single-target sequential scan.
func DefaultConfig() Config {
	return Config{
		Timeout:            TimeoutScanning,
		InsecureSkipVerify: true,
		FollowRedirects:    false,
		MaxIdleConns:       20,
		MaxConnsPerHost:    10,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns the shared pre-configured client. Safe for concurrent use.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// Probing returns a client with the shorter probing timeout.
func Probing() *http.Client {
	cfg := DefaultConfig()
	cfg.Timeout = TimeoutProbing
	return New(cfg)
}

// New creates an HTTP client from cfg, filling zero values with defaults.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = TimeoutScanning
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 20
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 10
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext:         dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}
