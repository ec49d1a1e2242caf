package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vmtest/internal/report"
)

// runDirs returns the run-* directories under base, sorted by name.
func runDirs(t *testing.T, base string) []string {
	t.Helper()
	entries, err := os.ReadDir(base)
	require.NoError(t, err)

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "run-") {
			dirs = append(dirs, filepath.Join(base, entry.Name()))
		}
	}
	return dirs
}

func TestRunCommand_Success(t *testing.T) {
	path := writeSpecFile(t, `
name: echo-check
modules: base.nix
commands:
  - echo hello
  - true
diagnostics: false
`)
	base := t.TempDir()

	out, err := executeCommand(t, "run", path, "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ echo-check passed")
	assert.Contains(t, out, "2 commands")

	dirs := runDirs(t, base)
	require.Len(t, dirs, 1)

	transcript, err := os.ReadFile(filepath.Join(dirs[0], report.TranscriptFile))
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "$ echo hello")
	assert.Contains(t, string(transcript), "hello")
	assert.Contains(t, string(transcript), "[exit=0]")

	summary, err := os.ReadFile(filepath.Join(dirs[0], report.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), `"success": true`)

	assert.NoFileExists(t, filepath.Join(dirs[0], report.JournalFile))
	assert.NoFileExists(t, filepath.Join(dirs[0], report.DiagnosticsFile))
}

func TestRunCommand_FailureAbortsAndReports(t *testing.T) {
	path := writeSpecFile(t, `
name: broken-run
modules: base.nix
commands:
  - echo starting
  - "echo 'error: service refused to start'; exit 3"
  - echo never-reached
diagnostics: false
`)
	base := t.TempDir()

	out, err := executeCommand(t, "run", path, "--out", base)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken-run failed")
	assert.Contains(t, out, "error: service refused to start")

	dirs := runDirs(t, base)
	require.Len(t, dirs, 1)

	transcript, err := os.ReadFile(filepath.Join(dirs[0], report.TranscriptFile))
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "[exit=3]")
	assert.NotContains(t, string(transcript), "never-reached")

	summary, err := os.ReadFile(filepath.Join(dirs[0], report.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), `"success": false`)
}

func TestRunCommand_AppliesEnv(t *testing.T) {
	path := writeSpecFile(t, `
name: env-check
modules: base.nix
commands:
  - echo "greeting=$GREETING"
env:
  GREETING: bonjour
diagnostics: false
`)
	base := t.TempDir()

	_, err := executeCommand(t, "run", path, "--out", base)
	require.NoError(t, err)

	dirs := runDirs(t, base)
	require.Len(t, dirs, 1)

	transcript, err := os.ReadFile(filepath.Join(dirs[0], report.TranscriptFile))
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "greeting=bonjour")
}

func TestRunCommand_RecordsHistory(t *testing.T) {
	path := writeSpecFile(t, `
name: history-check
modules: base.nix
commands:
  - true
diagnostics: false
`)
	base := t.TempDir()

	_, err := executeCommand(t, "run", path, "--out", base)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(base, "history.db"))

	out, err := executeCommand(t, "list", "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, "history-check")
}

func TestRunCommand_KeepPrunesOldRuns(t *testing.T) {
	path := writeSpecFile(t, `
name: prune-check
modules: base.nix
commands:
  - true
diagnostics: false
`)
	base := t.TempDir()

	for i := 0; i < 3; i++ {
		_, err := executeCommand(t, "run", path, "--out", base, "--keep", "2")
		require.NoError(t, err)
	}

	assert.Len(t, runDirs(t, base), 2)
}

func TestRunCommand_JSONOutput(t *testing.T) {
	path := writeSpecFile(t, `
name: json-check
modules: base.nix
commands:
  - true
diagnostics: false
`)
	base := t.TempDir()

	out, err := executeCommand(t, "--format", "json", "run", path, "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, `"success":true`)
	assert.Contains(t, out, `"spec_name":"json-check"`)
}

func TestRunCommand_InvalidSpecExitsWithoutArtifacts(t *testing.T) {
	path := writeSpecFile(t, `
name: no-commands
modules: base.nix
commands: []
`)
	base := t.TempDir()

	_, err := executeCommand(t, "run", path, "--out", base)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, runDirs(t, base))
}
