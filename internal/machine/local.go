package machine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Local executes commands on the host through `sh -c`. It exists so runs
// can be driven without a booted VM; commands arrive already wrapped, so
// the inner shell receives a single escaped token.
type Local struct{}

// NewLocal returns a host-local machine adapter.
func NewLocal() *Local {
	return &Local{}
}

// WaitForTargetReady verifies a POSIX shell is available on the host.
func (l *Local) WaitForTargetReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath("sh"); err != nil {
		return fmt.Errorf("local machine not ready: %w", err)
	}
	return nil
}

// Execute runs the wrapped command and returns its exit status and
// combined output. A non-zero exit is reported through the status, not
// the error; the error is reserved for failures to run the shell at all.
func (l *Local) Execute(ctx context.Context, command string) (int, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), string(out), nil
		}
		return 0, "", fmt.Errorf("failed to execute command: %w", err)
	}
	return 0, string(out), nil
}
