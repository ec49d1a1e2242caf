package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/vmtest/internal/errdetect"
	"github.com/roach88/vmtest/internal/executor"
	"github.com/roach88/vmtest/internal/history"
	"github.com/roach88/vmtest/internal/machine"
	"github.com/roach88/vmtest/internal/spec"
	"github.com/roach88/vmtest/internal/workspace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	BaseDir string
	Keep    int

	// Machine allows tests to inject a scripted machine. Nil means the
	// host-local adapter.
	Machine machine.Machine
}

// RunOutput is the run command's structured result.
type RunOutput struct {
	Success   bool    `json:"success"`
	SpecName  string  `json:"spec_name"`
	OutputDir string  `json:"output_dir"`
	Commands  int     `json:"commands"`
	ExitCode  int     `json:"exit_code"`
	Duration  float64 `json:"duration_seconds"`
	ErrorLine string  `json:"error_line,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <spec.yaml>",
		Short: "Execute a test spec against a machine",
		Long: `Execute a test spec's command sequence against a machine.

Each run writes its artifacts (transcript.log, summary.json, and, when
diagnostics are enabled, journal.txt and diagnostics.txt) to a fresh
timestamped directory under the output base directory, records the outcome
in the run history, and prunes old run directories when --keep is set.

Exit codes:
  0 - all commands exited zero
  1 - a command failed (the run failed)
  2 - bad spec or I/O error

Examples:
  vmtest run ./specs/nginx-smoke.yaml
  vmtest run ./specs/nginx-smoke.yaml --out ./results --keep 10
  vmtest run ./specs/nginx-smoke.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BaseDir, "out", "./vmtest-runs", "base directory for run outputs")
	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "keep only the N most recent run directories (0 = keep all)")

	return cmd
}

func runSpec(opts *RunOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	ts, err := spec.Load(specPath)
	if err != nil {
		_ = formatter.Failure(err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid spec", err)
	}
	slog.Debug("spec loaded", "name", ts.Name, "commands", len(ts.Commands), "diagnostics", ts.Diagnostics)

	startedAt := time.Now()
	runDir, err := workspace.CreateRunDir(opts.BaseDir, startedAt)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create run directory", err)
	}

	m := opts.Machine
	if m == nil {
		m = machine.NewLocal()
	}

	// Interrupts cancel the in-flight Execute call; the enclosing test
	// framework timeout is the only other bound on a hung command.
	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := executor.New(m, runDir, slog.Default())
	summary, runErr := runner.Run(ctx, ts)

	out := RunOutput{
		SpecName:  ts.Name,
		OutputDir: runDir,
	}
	var cmdErr *executor.CommandError
	if runErr != nil {
		var isCommand bool
		cmdErr, isCommand = executor.AsCommandError(runErr)
		if !isCommand {
			// Config, transport, or I/O failure; no summary contract to report.
			_ = formatter.Failure(runErr.Error(), nil)
			return WrapExitError(ExitCommandError, "run could not be driven", runErr)
		}
		out.ExitCode = cmdErr.ExitCode
		out.ErrorLine = errdetect.ExtractLine(cmdErr.Output)
	}

	out.Success = summary.Success
	out.Commands = len(summary.Commands)
	if summary.FinishedAt != nil {
		out.Duration = *summary.FinishedAt - summary.StartedAt
	}

	recordHistory(opts, ts, out, startedAt)

	if opts.Keep > 0 {
		if removed, pruneErr := workspace.Prune(opts.BaseDir, opts.Keep); pruneErr != nil {
			slog.Warn("failed to prune old runs", "error", pruneErr)
		} else if removed > 0 {
			slog.Debug("pruned old run directories", "removed", removed)
		}
	}

	if err := emitRunResult(formatter, out); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if cmdErr != nil {
		return WrapExitError(ExitFailure, "run failed", cmdErr)
	}
	return nil
}

// recordHistory appends the run to the history database next to the run
// directories. History is best-effort: a failure here is logged, never
// fatal, because the artifacts on disk are the source of truth.
func recordHistory(opts *RunOptions, ts *spec.TestSpec, out RunOutput, startedAt time.Time) {
	store, err := history.Open(filepath.Join(opts.BaseDir, "history.db"))
	if err != nil {
		slog.Warn("failed to open run history", "error", err)
		return
	}
	defer store.Close()

	id, err := uuid.NewV7()
	if err != nil {
		slog.Warn("failed to generate run id", "error", err)
		return
	}

	run := history.Run{
		ID:           id.String(),
		SpecName:     ts.Name,
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(time.Duration(out.Duration * float64(time.Second))),
		Success:      out.Success,
		ExitCode:     out.ExitCode,
		CommandCount: out.Commands,
		OutputDir:    out.OutputDir,
		ErrorLine:    out.ErrorLine,
	}
	if err := store.RecordRun(context.Background(), run); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

func emitRunResult(formatter *OutputFormatter, out RunOutput) error {
	if formatter.JSON() {
		return formatter.Success(out)
	}

	if out.Success {
		fmt.Fprintf(formatter.Writer, "✓ %s passed (%d commands, %.2fs)\n", out.SpecName, out.Commands, out.Duration)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s failed (command %d exited %d)\n", out.SpecName, out.Commands, out.ExitCode)
		if out.ErrorLine != "" {
			fmt.Fprintf(formatter.Writer, "  %s\n", out.ErrorLine)
		}
	}
	fmt.Fprintf(formatter.Writer, "Artifacts: %s\n", out.OutputDir)
	return nil
}

// contextOf returns the command's context, falling back to Background for
// commands constructed outside cobra's Execute path.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
