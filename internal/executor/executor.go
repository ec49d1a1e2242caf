package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/vmtest/internal/machine"
	"github.com/roach88/vmtest/internal/report"
	"github.com/roach88/vmtest/internal/shell"
	"github.com/roach88/vmtest/internal/spec"
)

// Runner executes one test spec against one machine, writing all artifacts
// under a single output directory it exclusively owns for the duration of
// the run. Reusing a Runner for concurrent runs sharing one output
// directory is undefined behavior; callers must give each run its own.
type Runner struct {
	machine machine.Machine
	dir     string
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a runner writing artifacts to dir. An empty dir falls back
// to the current working directory. A nil logger discards output.
func New(m machine.Machine, dir string, logger *slog.Logger) *Runner {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		machine: m,
		dir:     dir,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the runner's time source. Used by tests to produce
// deterministic timestamps and durations.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run drives the spec's command sequence in order and returns the final
// summary. The returned summary is always the value persisted to
// summary.json, on both the success and the failure path.
//
// Error semantics follow the run taxonomy: a *spec.ConfigError means
// nothing was written; a *CommandError means a command exited non-zero and
// all artifacts up to and including that command are on disk; any other
// error is an I/O or transport failure that is fatal to the run.
func (r *Runner) Run(ctx context.Context, ts *spec.TestSpec) (*report.RunSummary, error) {
	// Rejected before anything touches the filesystem.
	if len(ts.Commands) == 0 {
		return nil, &spec.ConfigError{Field: "commands", Message: "command sequence must be non-empty"}
	}

	if err := r.machine.WaitForTargetReady(ctx); err != nil {
		return nil, fmt.Errorf("target never became ready: %w", err)
	}

	transcript, err := report.OpenTranscript(r.dir)
	if err != nil {
		return nil, err
	}
	defer transcript.Close()

	summary := report.NewRunSummary(r.now())
	var failure *CommandError

	for i, command := range ts.Commands {
		r.logger.Info("executing command", "index", i, "command", command)

		wrapped := shell.Wrap(command, ts.Env)
		started := r.now()
		status, output, err := r.machine.Execute(ctx, wrapped)
		if err != nil {
			return nil, fmt.Errorf("command %d (%q) could not be executed: %w", i, command, err)
		}
		elapsed := r.now().Sub(started)

		summary.Record(command, status, elapsed)
		if err := transcript.Append(command, output, status); err != nil {
			return nil, err
		}

		if status != 0 {
			r.logger.Error("command failed, aborting run",
				"index", i,
				"command", command,
				"exit", status,
			)
			failure = &CommandError{Index: i, Command: command, ExitCode: status, Output: output}
			break
		}
	}

	// Single exit point: both terminal states stamp the finish time,
	// collect diagnostics once, and persist the summary.
	summary.Finish(r.now())
	if ts.Diagnostics {
		if err := report.CollectDiagnostics(ctx, r.machine, r.dir, r.logger); err != nil {
			return nil, err
		}
	}
	if err := report.WriteSummary(r.dir, summary); err != nil {
		return nil, err
	}

	if failure != nil {
		return summary, failure
	}
	r.logger.Info("run succeeded", "commands", len(summary.Commands))
	return summary, nil
}
