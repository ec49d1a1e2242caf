package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// CommandResult records one executed command. Immutable once recorded;
// appended to the summary's command list in execution order.
type CommandResult struct {
	Command         string  `json:"command"`
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RunSummary is the structured report of one run. It is created at run
// start with a provisional success flag and mutated in place as commands
// complete; the persisted summary.json always reflects the last write.
type RunSummary struct {
	Success    bool            `json:"success"`
	StartedAt  float64         `json:"started_at"`
	FinishedAt *float64        `json:"finished_at,omitempty"`
	Commands   []CommandResult `json:"commands"`
}

// NewRunSummary creates a provisionally-successful summary for a run
// starting at the given time.
func NewRunSummary(startedAt time.Time) *RunSummary {
	return &RunSummary{
		Success:   true,
		StartedAt: unixSeconds(startedAt),
		Commands:  []CommandResult{},
	}
}

// Record appends a command result. A non-zero exit flips the success flag
// the moment it is recorded.
func (s *RunSummary) Record(command string, exitCode int, elapsed time.Duration) {
	s.Commands = append(s.Commands, CommandResult{
		Command:         command,
		ExitCode:        exitCode,
		DurationSeconds: roundSeconds(elapsed),
	})
	if exitCode != 0 {
		s.Success = false
	}
}

// Finish stamps the finish time. Idempotent: only the first call sets it.
func (s *RunSummary) Finish(at time.Time) {
	if s.FinishedAt != nil {
		return
	}
	ts := unixSeconds(at)
	s.FinishedAt = &ts
}

// WriteSummary persists the summary to summary.json in dir, overwriting any
// existing file. Field order is stable. Safe to call multiple times per
// run; the file always holds the last value written.
func WriteSummary(dir string, s *RunSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// unixSeconds converts a time to fractional unix seconds, the summary's
// wire format for timestamps.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// roundSeconds converts an elapsed duration to seconds rounded to two
// decimal places.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
