package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyscan/bountyscan/pkg/authz"
	"github.com/bountyscan/bountyscan/pkg/crawlinput"
)

const policyYAML = `version: "1"
allow:
  targets:
    - 127.0.0.1
  actions:
    - scan
`

func fixture(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	policyPath := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policyPath, []byte(policyYAML), 0o644))

	scopePath := filepath.Join(dir, "scope.json")
	require.NoError(t, os.WriteFile(scopePath, []byte(`{"ips":["127.0.0.1"],"domains":["example.com"]}`), 0o644))

	return Config{
		PolicyPath:   policyPath,
		ScopePath:    scopePath,
		OutputDir:    filepath.Join(dir, "out"),
		Acknowledged: true,
	}
}

type stubRecon struct {
	data crawlinput.Data
	err  error
}

func (s stubRecon) Recon(ctx context.Context, host string) (crawlinput.Data, error) {
	return s.data, s.err
}

type stubCrawl struct {
	data crawlinput.Data
	err  error
}

func (s stubCrawl) Crawl(ctx context.Context, targetURL string, maxPages int) (crawlinput.Data, error) {
	return s.data, s.err
}

type panicRecon struct{}

func (panicRecon) Recon(ctx context.Context, host string) (crawlinput.Data, error) {
	panic("collaborator exploded")
}

func TestRunDryRun(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "127.0.0.1"
	cfg.DryRun = true

	result, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "dry_run_no_requests", result.Note)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Findings)
	assert.Empty(t, result.Errors)
}

func TestRunAuthzFailureIsFatal(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "evil.com"
	cfg.DryRun = true

	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, authz.ErrOutOfScope))
}

func TestRunActiveWithoutAcknowledgment(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "127.0.0.1"
	cfg.Acknowledged = false

	_, err := New(cfg).Run(context.Background())
	assert.True(t, errors.Is(err, authz.ErrNotAcknowledged))
}

func TestRunPassiveProfileSkipsProbes(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "127.0.0.1"
	cfg.Profile = "passive"
	cfg.Acknowledged = false
	cfg.Recon = stubRecon{data: crawlinput.Data{Endpoints: []string{"http://127.0.0.1/a?q=1"}}}

	result, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "passive_profile_no_active_tests", result.Note)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 1, result.Summary.EndpointsFound)
}

func TestRunCollaboratorFailureDegrades(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "127.0.0.1"
	cfg.Profile = "passive"
	cfg.Acknowledged = false
	cfg.Recon = stubRecon{err: errors.New("recon backend unreachable")}
	cfg.Crawl = stubCrawl{data: crawlinput.Data{Tech: []string{"react"}, Pages: 4}}

	result, err := New(cfg).Run(context.Background())
	require.NoError(t, err, "phase failure must not abort the run")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "recon", result.Errors[0].Stage)
	assert.Contains(t, result.Errors[0].Error, "unreachable")
	assert.Equal(t, []string{"react"}, result.Summary.TechDetected)
	assert.Equal(t, 4, result.Summary.PagesCrawled)
	assert.Equal(t, 1, result.Summary.ErrorCount)
}

func TestRunCollaboratorPanicDegrades(t *testing.T) {
	cfg := fixture(t)
	cfg.Target = "127.0.0.1"
	cfg.Profile = "passive"
	cfg.Acknowledged = false
	cfg.Recon = panicRecon{}

	result, err := New(cfg).Run(context.Background())
	require.NoError(t, err, "phase panic must not abort the run")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "recon", result.Errors[0].Stage)
	assert.Contains(t, result.Errors[0].Error, "exploded")
}

func TestRunActiveEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.Write([]byte("<html>" + q + q + q + q + "</html>"))
	}))
	defer srv.Close()

	cfg := fixture(t)
	cfg.Target = srv.URL
	cfg.Crawl = stubCrawl{data: crawlinput.Data{
		Endpoints: []string{srv.URL + "/search?q=test"},
		Tech:      []string{"react"},
		Pages:     1,
	}}

	result, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.Findings, "reflected endpoint should produce a finding")
	for _, f := range result.Findings {
		assert.NotNil(t, f.Playbook, "triaged findings carry playbooks")
		assert.Greater(t, f.Confidence, 0.0)
	}
	assert.Equal(t, result.Summary.TotalFindings, len(result.Findings))
	assert.NotEmpty(t, result.Summary.BySeverity)

	entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "evidence"))
	require.NoError(t, err, "evidence directory should exist after active probes")
	assert.NotEmpty(t, entries)
}
