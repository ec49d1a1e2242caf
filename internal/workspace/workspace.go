// Package workspace manages the on-disk layout of run output directories.
//
// Each run gets its own timestamped directory under a base directory, so
// concurrent or repeated runs never share artifact files. Retention is a
// caller concern: the executor never deletes anything.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// runDirPrefix names run directories `run-YYYYMMDD-HHMMSS`.
const runDirPrefix = "run-"

// CreateRunDir creates a fresh timestamped run directory under baseDir,
// creating baseDir itself if needed. When two runs start within the same
// second, a numeric suffix keeps the directories distinct.
func CreateRunDir(baseDir string, at time.Time) (string, error) {
	name := runDirPrefix + at.Format("20060102-150405")
	dir := filepath.Join(baseDir, name)

	for i := 0; ; i++ {
		candidate := dir
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", dir, i)
		}
		err := os.MkdirAll(filepath.Dir(candidate), 0o755)
		if err != nil {
			return "", fmt.Errorf("failed to create base directory: %w", err)
		}
		err = os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create run directory: %w", err)
		}
	}
}

// Prune removes the oldest run directories under baseDir so that at most
// keep remain. A keep of zero or less disables pruning. Returns the number
// of directories removed.
//
// Only directories matching the run-directory naming scheme are touched;
// anything else under baseDir is left alone.
func Prune(baseDir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read base directory: %w", err)
	}

	var runDirs []string
	for _, entry := range entries {
		if entry.IsDir() && len(entry.Name()) > len(runDirPrefix) && entry.Name()[:len(runDirPrefix)] == runDirPrefix {
			runDirs = append(runDirs, entry.Name())
		}
	}

	// The timestamped names sort chronologically, newest last.
	sort.Strings(runDirs)
	if len(runDirs) <= keep {
		return 0, nil
	}

	removed := 0
	for _, name := range runDirs[:len(runDirs)-keep] {
		if err := os.RemoveAll(filepath.Join(baseDir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
