// Command bountyscan runs an authorized web application scan against a
// single in-scope target and writes a JSON report plus per-request
// evidence records.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bountyscan/bountyscan/pkg/authz"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/report"
	"github.com/bountyscan/bountyscan/pkg/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		targetFlag   = flag.String("target", "", "target host or URL (required)")
		schemeFlag   = flag.String("scheme", "", "force scheme: http or https")
		profileFlag  = flag.String("profile", "cautious", "run profile: passive, cautious, or active")
		outputFlag   = flag.String("output", "output", "output directory for report and evidence")
		policyFlag   = flag.String("policy", "policy.yaml", "authorization policy file")
		scopeFlag    = flag.String("scope", "scope.json", "scope definition file")
		focusFlag    = flag.String("focus", "", "focus lock file")
		profilesFlag = flag.String("profiles", "", "profiles config file")
		budgetFlag   = flag.String("budget", "", "budget config file")
		playbookFlag = flag.String("playbooks", "", "playbook directory")
		auditFlag    = flag.String("audit-log", "", "audit log file")
		ackFlag      = flag.Bool("ack", false, "acknowledge authorization for active probing")
		dryRunFlag   = flag.Bool("dry-run", false, "authorize and report without sending probes")
		verboseFlag  = flag.Bool("verbose", false, "enable debug logging")
		versionFlag  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println("bountyscan " + defaults.Version)
		return defaults.ExitSuccess
	}
	if *targetFlag == "" {
		fmt.Fprintln(os.Stderr, "error: -target is required")
		flag.Usage()
		return defaults.ExitUserError
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(runner.Config{
		Target:       *targetFlag,
		Scheme:       *schemeFlag,
		Profile:      *profileFlag,
		OutputDir:    *outputFlag,
		PolicyPath:   *policyFlag,
		ScopePath:    *scopeFlag,
		FocusPath:    *focusFlag,
		ProfilesPath: *profilesFlag,
		BudgetPath:   *budgetFlag,
		PlaybookDir:  *playbookFlag,
		AuditLogPath: *auditFlag,
		Acknowledged: *ackFlag,
		DryRun:       *dryRunFlag,
		Logger:       logger,
	})

	result, err := r.Run(ctx)
	if err != nil {
		logger.Error("run aborted", slog.String("error", err.Error()))
		if isAuthzError(err) {
			return defaults.ExitAuthzDenied
		}
		return defaults.ExitInternalError
	}

	path, err := report.WriteJSON(*outputFlag, "report_"+result.RunID+".json", result)
	if err != nil {
		logger.Error("report write failed", slog.String("error", err.Error()))
		return defaults.ExitInternalError
	}

	logger.Info("report written",
		slog.String("path", path),
		slog.Int("findings", result.Summary.TotalFindings),
		slog.Int("errors", result.Summary.ErrorCount),
	)
	return defaults.ExitSuccess
}

func isAuthzError(err error) bool {
	return errors.Is(err, authz.ErrPolicyInvalid) ||
		errors.Is(err, authz.ErrOutOfScope) ||
		errors.Is(err, authz.ErrFocusViolation) ||
		errors.Is(err, authz.ErrNotAcknowledged)
}
