package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/vmtest/internal/machine"
	"github.com/roach88/vmtest/internal/shell"
)

// journalCommand dumps the init-system journal for the current boot.
const journalCommand = "journalctl -b --no-pager"

// introspectionCommands is the fixed, ordered set of read-only commands
// captured into diagnostics.txt: failed service units, version banner,
// kernel ring buffer.
var introspectionCommands = []string{
	"systemctl --failed --no-pager",
	"nixos-version",
	"dmesg",
}

// CollectDiagnostics captures the machine's journal into journal.txt and
// the introspection command output into diagnostics.txt, overwriting any
// prior content of either file.
//
// A failing introspection command records its own exit status in its
// section and collection continues; only an inability to drive the machine
// or to write the files is an error.
func CollectDiagnostics(ctx context.Context, m machine.Machine, dir string, logger *slog.Logger) error {
	// Full journal dump, stored verbatim.
	status, journal, err := m.Execute(ctx, shell.Wrap(journalCommand, nil))
	if err != nil {
		return fmt.Errorf("failed to capture journal: %w", err)
	}
	if status != 0 {
		logger.Warn("journal dump exited non-zero", "exit", status)
	}
	if err := os.WriteFile(filepath.Join(dir, JournalFile), []byte(journal), 0o644); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	// Sectioned introspection output, same block shape as the transcript.
	var b strings.Builder
	for _, cmd := range introspectionCommands {
		status, out, err := m.Execute(ctx, shell.Wrap(cmd, nil))
		if err != nil {
			return fmt.Errorf("failed to run introspection command %q: %w", cmd, err)
		}
		renderBlock(&b, cmd, out, status)
		if status != 0 {
			logger.Debug("introspection command failed", "command", cmd, "exit", status)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, DiagnosticsFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}

	return nil
}
