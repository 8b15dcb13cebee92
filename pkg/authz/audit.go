package authz

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Auditor emits one AUTHZ_ENFORCED line per successful authorization: to
// process output always, and to a rotating log file when a path is
// configured.
type Auditor struct {
	logger *slog.Logger
	out    io.Writer
	file   io.WriteCloser
}

// NewAuditor builds an Auditor. logPath may be empty to skip the file sink;
// when set, the file rolls over via lumberjack so long-lived hosts keep a
// bounded audit trail.
func NewAuditor(logger *slog.Logger, logPath string) *Auditor {
	a := &Auditor{logger: logger, out: os.Stdout}
	if logger == nil {
		a.logger = slog.Default()
	}
	if logPath != "" {
		a.file = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     90, // days
		}
	}
	return a
}

// Enforced records a successful authorization with the run id and the
// SHA-256 digest of the raw policy file.
func (a *Auditor) Enforced(runID, policyPath, policySHA256 string) {
	line := fmt.Sprintf("AUTHZ_ENFORCED run_id=%s policy_sha256=%s policy_path=%s",
		runID, policySHA256, policyPath)

	fmt.Fprintln(a.out, line)
	a.logger.Info("authorization enforced",
		slog.String("run_id", runID),
		slog.String("policy_sha256", policySHA256),
		slog.String("policy_path", policyPath),
	)

	if a.file != nil {
		ts := time.Now().UTC().Format(time.RFC3339)
		if _, err := fmt.Fprintf(a.file, "%s %s\n", ts, line); err != nil {
			a.logger.Warn("audit file write failed", slog.String("error", err.Error()))
		}
	}
}

// Close releases the file sink, if any.
func (a *Auditor) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
