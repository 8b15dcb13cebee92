// Package runner orchestrates a full scan: authorization gate, recon and
// crawl collaborators, the probe phase, triage, playbook routing, and the
// run summary. Every phase after the gate runs inside a failure boundary,
// so one collapsing phase degrades the report instead of killing the run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bountyscan/bountyscan/pkg/authprobe"
	"github.com/bountyscan/bountyscan/pkg/authz"
	"github.com/bountyscan/bountyscan/pkg/budget"
	"github.com/bountyscan/bountyscan/pkg/config"
	"github.com/bountyscan/bountyscan/pkg/crawlinput"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/engine"
	"github.com/bountyscan/bountyscan/pkg/evidence"
	"github.com/bountyscan/bountyscan/pkg/finding"
	"github.com/bountyscan/bountyscan/pkg/idor"
	"github.com/bountyscan/bountyscan/pkg/playbook"
	"github.com/bountyscan/bountyscan/pkg/sqli"
	"github.com/bountyscan/bountyscan/pkg/ssrf"
	"github.com/bountyscan/bountyscan/pkg/target"
	"github.com/bountyscan/bountyscan/pkg/triage"
	"github.com/bountyscan/bountyscan/pkg/xss"
)

// Reconner is the external reconnaissance collaborator.
type Reconner interface {
	Recon(ctx context.Context, host string) (crawlinput.Data, error)
}

// Crawler is the external crawl collaborator.
type Crawler interface {
	Crawl(ctx context.Context, targetURL string, maxPages int) (crawlinput.Data, error)
}

// Config holds everything a run needs.
type Config struct {
	Target string
	Scheme string

	Profile   string
	OutputDir string

	PolicyPath   string
	ScopePath    string
	FocusPath    string
	ProfilesPath string
	BudgetPath   string
	PlaybookDir  string
	AuditLogPath string

	Acknowledged bool
	DryRun       bool

	Recon Reconner
	Crawl Crawler

	Logger *slog.Logger
}

// PhaseError records a phase that failed without aborting the run.
type PhaseError struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Summary aggregates the run for the report header.
type Summary struct {
	TotalFindings  int            `json:"total_findings"`
	BySeverity     map[string]int `json:"by_severity,omitempty"`
	TechDetected   []string       `json:"tech_detected,omitempty"`
	EndpointsFound int            `json:"endpoints_found"`
	PagesCrawled   int            `json:"pages_crawled"`
	ErrorCount     int            `json:"error_count"`
}

// Result is the full run report.
type Result struct {
	Target    string            `json:"target"`
	TargetURL string            `json:"target_url"`
	Scheme    string            `json:"scheme"`
	RunID     string            `json:"run_id"`
	Profile   string            `json:"profile"`
	Timestamp time.Time         `json:"timestamp"`
	Recon     crawlinput.Data   `json:"recon,omitempty"`
	Crawl     crawlinput.Data   `json:"crawl,omitempty"`
	Findings  []finding.Finding `json:"findings"`
	Summary   Summary           `json:"summary"`
	Errors    []PhaseError      `json:"errors,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// Runner executes scans.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Profile == "" {
		cfg.Profile = "cautious"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	return &Runner{cfg: cfg, logger: cfg.Logger}
}

// Run executes one scan end to end. Authorization failure is the only
// fatal error; every later phase failure lands in Result.Errors.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	tgt := target.Normalize(r.cfg.Target, r.cfg.Scheme)
	profile := config.LoadProfiles(r.cfg.ProfilesPath).Get(r.cfg.Profile)

	decision, err := authz.Authorize(authz.Request{
		Target:       tgt.Host(),
		PolicyPath:   r.cfg.PolicyPath,
		ScopePath:    r.cfg.ScopePath,
		FocusPath:    r.cfg.FocusPath,
		Active:       profile.ActiveTests && !r.cfg.DryRun,
		Acknowledged: r.cfg.Acknowledged,
		AuditLogPath: r.cfg.AuditLogPath,
	}, r.logger)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Target:    tgt.Raw,
		TargetURL: tgt.URL,
		Scheme:    tgt.Scheme,
		RunID:     decision.RunID,
		Profile:   r.cfg.Profile,
		Timestamp: time.Now().UTC(),
		Findings:  []finding.Finding{},
	}

	if r.cfg.DryRun {
		result.Note = "dry_run_no_requests"
		result.Summary = summarize(result, crawlinput.Data{})
		return result, nil
	}

	r.logger.Info("run started",
		slog.String("run_id", decision.RunID),
		slog.String("target", tgt.URL),
		slog.String("profile", r.cfg.Profile),
	)

	var data crawlinput.Data

	r.phase(result, "recon", func() error {
		if r.cfg.Recon == nil {
			return nil
		}
		d, err := r.cfg.Recon.Recon(ctx, tgt.Host())
		if err != nil {
			return err
		}
		result.Recon = d
		data = crawlinput.Merge(data, d)
		return nil
	})

	r.phase(result, "crawl", func() error {
		if r.cfg.Crawl == nil {
			return nil
		}
		d, err := r.cfg.Crawl.Crawl(ctx, tgt.URL, profile.MaxPages)
		if err != nil {
			return err
		}
		result.Crawl = d
		data = crawlinput.Merge(data, d)
		return nil
	})

	if profile.ActiveTests {
		r.probePhase(ctx, result, tgt.URL, data)
	} else {
		result.Note = "passive_profile_no_active_tests"
	}

	r.phase(result, "triage", func() error {
		result.Findings = triage.Triage(result.Findings)
		return nil
	})

	r.phase(result, "playbooks", func() error {
		books, err := playbook.LoadAll(r.cfg.PlaybookDir)
		routed := playbook.Route(data.Tech)
		result.Findings = playbook.Attach(result.Findings, routed, books)
		return err
	})

	result.Summary = summarize(result, data)
	r.logger.Info("run finished",
		slog.String("run_id", decision.RunID),
		slog.Int("findings", result.Summary.TotalFindings),
		slog.Int("errors", result.Summary.ErrorCount),
	)
	return result, nil
}

// probePhase builds the shared engine and runs each routed probe family
// inside its own failure boundary.
func (r *Runner) probePhase(ctx context.Context, result *Result, targetURL string, data crawlinput.Data) {
	budgetCfg := config.LoadBudget(r.cfg.BudgetPath)

	recorder, err := evidence.NewRecorder(r.cfg.OutputDir, evidence.ParseLevel(budgetCfg.EvidenceLevel))
	if err != nil {
		result.Errors = append(result.Errors, PhaseError{Stage: "evidence", Error: err.Error()})
		recorder = nil
	}

	eng := engine.New(engine.Config{
		Budget:    budget.New(budgetCfg.Requests.MaxPerMinute, defaults.BudgetWindow),
		RunBudget: budget.New(budgetCfg.Requests.MaxPerRun, 24*time.Hour),
		Recorder:  recorder,
		Logger:    r.logger,
	})

	// Every family always runs; tech routing only selects which findings
	// get playbooks attached afterwards.
	type family struct {
		t    finding.Type
		scan func() []finding.Finding
	}
	families := []family{
		{finding.TypeXSS, func() []finding.Finding {
			return xss.NewScanner(xss.Config{Engine: eng, Logger: r.logger}).Scan(ctx, targetURL, data)
		}},
		{finding.TypeSQLi, func() []finding.Finding {
			return sqli.NewScanner(sqli.Config{Engine: eng, Logger: r.logger}).Scan(ctx, targetURL, data)
		}},
		{finding.TypeIDOR, func() []finding.Finding {
			return idor.NewScanner(idor.Config{Engine: eng, Logger: r.logger}).Scan(ctx, targetURL, data)
		}},
		{finding.TypeSSRF, func() []finding.Finding {
			return ssrf.NewScanner(ssrf.Config{Engine: eng, Logger: r.logger}).Scan(ctx, targetURL, data)
		}},
		{finding.TypeAuth, func() []finding.Finding {
			return authprobe.NewScanner(authprobe.Config{Engine: eng, Logger: r.logger}).Scan(ctx, targetURL)
		}},
	}

	for _, fam := range families {
		fam := fam
		r.phase(result, "probe_"+string(fam.t), func() error {
			result.Findings = append(result.Findings, fam.scan()...)
			return nil
		})
	}
}

// phase runs fn inside a failure boundary: an error or panic becomes a
// PhaseError and the run continues.
func (r *Runner) phase(result *Result, stage string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("phase panicked", slog.String("stage", stage), slog.Any("panic", rec))
			result.Errors = append(result.Errors, PhaseError{Stage: stage, Error: fmt.Sprint(rec)})
		}
	}()

	if err := fn(); err != nil {
		r.logger.Warn("phase failed", slog.String("stage", stage), slog.String("error", err.Error()))
		result.Errors = append(result.Errors, PhaseError{Stage: stage, Error: err.Error()})
	}
}

func summarize(result *Result, data crawlinput.Data) Summary {
	s := Summary{
		TotalFindings:  len(result.Findings),
		TechDetected:   data.Tech,
		EndpointsFound: len(data.Endpoints),
		PagesCrawled:   data.Pages,
		ErrorCount:     len(result.Errors),
	}
	if len(result.Findings) > 0 {
		s.BySeverity = make(map[string]int)
		for _, f := range result.Findings {
			s.BySeverity[string(f.Severity)]++
		}
	}
	return s
}
