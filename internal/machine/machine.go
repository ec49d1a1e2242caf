// Package machine defines the command-execution capability a test run is
// driven against, plus a local adapter for running without a VM substrate.
//
// The executor only ever sees the Machine interface, so tests drive it
// against a scripted implementation and the real VM substrate stays out
// of this module entirely.
package machine

import "context"

// Machine is the injected execution capability for one target machine.
//
// Execute is synchronous: it runs the already-wrapped command and blocks
// until the exit status and the full captured (merged) output stream are
// available. A non-nil error means the command could not be driven at all
// (transport failure), not that the command exited non-zero.
type Machine interface {
	// WaitForTargetReady blocks until the target is ready to accept
	// commands. Called once before a command sequence begins.
	WaitForTargetReady(ctx context.Context) error

	// Execute runs a command and returns its exit status and combined output.
	Execute(ctx context.Context, command string) (int, string, error)
}
