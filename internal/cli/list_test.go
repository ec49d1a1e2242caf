package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vmtest/internal/history"
)

// seedHistory records runs directly into a fresh history database and
// returns the base directory the list command should point at.
func seedHistory(t *testing.T, runs ...history.Run) string {
	t.Helper()
	base := t.TempDir()
	store, err := history.Open(filepath.Join(base, "history.db"))
	require.NoError(t, err)
	defer store.Close()

	for _, run := range runs {
		require.NoError(t, store.RecordRun(context.Background(), run))
	}
	return base
}

func seededRun(t *testing.T, name string, startedAt time.Time, success bool) history.Run {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return history.Run{
		ID:           id.String(),
		SpecName:     name,
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(2 * time.Second),
		Success:      success,
		CommandCount: 3,
		OutputDir:    "/tmp/run-x",
	}
}

func TestListCommand_NoHistory(t *testing.T) {
	out, err := executeCommand(t, "list", "--out", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestListCommand_MostRecentFirst(t *testing.T) {
	now := time.Now()
	base := seedHistory(t,
		seededRun(t, "older", now.Add(-time.Hour), true),
		seededRun(t, "newer", now, false),
	)

	out, err := executeCommand(t, "list", "--out", base)
	require.NoError(t, err)

	newerIdx := strings.Index(out, "newer")
	olderIdx := strings.Index(out, "older")
	require.GreaterOrEqual(t, newerIdx, 0)
	require.GreaterOrEqual(t, olderIdx, 0)
	assert.Less(t, newerIdx, olderIdx)
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "✓")
}

func TestListCommand_ShowsErrorLine(t *testing.T) {
	run := seededRun(t, "broken", time.Now(), false)
	run.ExitCode = 1
	run.ErrorLine = "error: nginx.service failed to start"
	base := seedHistory(t, run)

	out, err := executeCommand(t, "list", "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, "error: nginx.service failed to start")
}

func TestListCommand_HonorsLimit(t *testing.T) {
	now := time.Now()
	base := seedHistory(t,
		seededRun(t, "first", now.Add(-2*time.Hour), true),
		seededRun(t, "second", now.Add(-time.Hour), true),
		seededRun(t, "third", now, true),
	)

	out, err := executeCommand(t, "list", "--out", base, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "third")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "first")
}

func TestListCommand_JSONEmpty(t *testing.T) {
	base := seedHistory(t)

	out, err := executeCommand(t, "--format", "json", "list", "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, `"data":[]`)
}
