package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact file names, fixed relative to the run's output directory.
const (
	TranscriptFile  = "transcript.log"
	JournalFile     = "journal.txt"
	DiagnosticsFile = "diagnostics.txt"
	SummaryFile     = "summary.json"
)

// Transcript is the append-only log of every executed command, its captured
// output, and its exit status, in execution order. Blocks are never
// rewritten, only appended.
type Transcript struct {
	f *os.File
}

// OpenTranscript creates (or opens for append) the transcript file in dir.
// The file exists on disk, possibly empty, as soon as this returns.
func OpenTranscript(dir string) (*Transcript, error) {
	path := filepath.Join(dir, TranscriptFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return &Transcript{f: f}, nil
}

// Append writes one command block and syncs it to disk before returning,
// so a crash mid-run leaves a readable partial transcript.
func (t *Transcript) Append(command, output string, exitStatus int) error {
	var b strings.Builder
	renderBlock(&b, command, output, exitStatus)
	if _, err := t.f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append to transcript: %w", err)
	}
	if err := t.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync transcript: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (t *Transcript) Close() error {
	return t.f.Close()
}

// renderBlock writes one `$ command / output / [exit=N]` block followed by
// a blank separator line. The output's trailing newlines are normalized to
// exactly one.
func renderBlock(b *strings.Builder, command, output string, exitStatus int) {
	b.WriteString("$ ")
	b.WriteString(command)
	b.WriteByte('\n')
	b.WriteString(strings.TrimRight(output, "\n"))
	b.WriteByte('\n')
	fmt.Fprintf(b, "[exit=%d]\n\n", exitStatus)
}
