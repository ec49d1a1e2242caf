package testutil

import "context"

// ExecResult is one scripted response from a ScriptedMachine.
type ExecResult struct {
	ExitCode int
	Output   string
	Err      error
}

// ScriptedMachine implements the machine capability against a fixed script
// of responses, so the executor can be tested without a real VM.
//
// Execute pops responses in order; once the script is exhausted it returns
// Default. Every executed command string is recorded in Commands in call
// order, wrapped exactly as the executor sent it.
type ScriptedMachine struct {
	// ReadyErr, if set, is returned from WaitForTargetReady.
	ReadyErr error

	// Results are consumed one per Execute call.
	Results []ExecResult

	// Default is returned after Results is exhausted.
	Default ExecResult

	// Commands records every command passed to Execute.
	Commands []string

	// ReadyCalls counts WaitForTargetReady invocations.
	ReadyCalls int

	next int
}

// WaitForTargetReady returns ReadyErr and counts the call.
func (m *ScriptedMachine) WaitForTargetReady(ctx context.Context) error {
	m.ReadyCalls++
	if m.ReadyErr != nil {
		return m.ReadyErr
	}
	return ctx.Err()
}

// Execute records the command and returns the next scripted response.
func (m *ScriptedMachine) Execute(ctx context.Context, command string) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	m.Commands = append(m.Commands, command)
	if m.next < len(m.Results) {
		r := m.Results[m.next]
		m.next++
		return r.ExitCode, r.Output, r.Err
	}
	return m.Default.ExitCode, m.Default.Output, m.Default.Err
}
