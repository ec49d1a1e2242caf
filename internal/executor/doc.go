// Package executor drives an ordered command sequence against one machine.
//
// The run is a strict state machine:
//
//	NotStarted → Running(0) → Running(1) → ... → Succeeded
//	                        └→ Failed(i) on the first non-zero exit
//
// Commands execute one at a time; the next command is not dispatched until
// the previous one's exit status, captured output, and duration are known.
// Both terminal states funnel through a single exit point that stamps the
// finish time, collects diagnostics when enabled (exactly once per run,
// regardless of outcome), and persists the summary. On failure no further
// commands execute and the failure is surfaced to the caller as a
// CommandError, which the caller must treat as fatal to the whole run.
//
// There is no timeout or retry here: a hang in the machine's Execute call
// is bounded by whatever deadline the caller put on the context, and a
// failed command is never re-run.
package executor
