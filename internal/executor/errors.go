package executor

import (
	"errors"
	"fmt"
)

// CommandError reports the first command that exited non-zero. It is the
// expected, first-class failure path: by the time the caller sees it, the
// summary has been marked failed and persisted and diagnostics (if
// enabled) have been collected.
type CommandError struct {
	// Index is the 0-based position of the failing command.
	Index int

	// Command is the literal (unwrapped) command string.
	Command string

	// ExitCode is the command's non-zero exit status.
	ExitCode int

	// Output is the captured combined output of the failing command.
	Output string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%q) exited with status %d", e.Index, e.Command, e.ExitCode)
}

// AsCommandError unwraps err to a CommandError, if it is one.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
