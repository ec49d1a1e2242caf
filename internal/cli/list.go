package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vmtest/internal/history"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	BaseDir string
	Limit   int
}

// ListedRun is one run in the list command's structured output.
type ListedRun struct {
	ID        string `json:"id"`
	SpecName  string `json:"spec_name"`
	StartedAt string `json:"started_at"`
	Success   bool   `json:"success"`
	ExitCode  int    `json:"exit_code"`
	OutputDir string `json:"output_dir"`
	ErrorLine string `json:"error_line,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Long: `List recent runs from the history database under the output base
directory, most recent first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BaseDir, "out", "./vmtest-runs", "base directory for run outputs")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "number of recent runs to show")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	dbPath := filepath.Join(opts.BaseDir, "history.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if formatter.JSON() {
			return formatter.Success([]ListedRun{})
		}
		fmt.Fprintf(formatter.Writer, "No runs found in %s\n", opts.BaseDir)
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run history", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(contextOf(cmd), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run history", err)
	}

	listed := make([]ListedRun, 0, len(runs))
	for _, run := range runs {
		listed = append(listed, ListedRun{
			ID:        run.ID,
			SpecName:  run.SpecName,
			StartedAt: run.StartedAt.Format(time.RFC3339),
			Success:   run.Success,
			ExitCode:  run.ExitCode,
			OutputDir: run.OutputDir,
			ErrorLine: run.ErrorLine,
		})
	}

	if formatter.JSON() {
		return formatter.Success(listed)
	}

	if len(listed) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded yet.")
		return nil
	}
	for _, run := range listed {
		status := "✓"
		if !run.Success {
			status = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s  %s  %s\n", status, run.StartedAt, run.SpecName, run.OutputDir)
		if run.ErrorLine != "" {
			fmt.Fprintf(formatter.Writer, "    %s\n", run.ErrorLine)
		}
	}
	return nil
}
