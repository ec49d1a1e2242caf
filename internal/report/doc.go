// Package report owns the artifacts a run leaves behind.
//
// Every run produces files under one output directory:
//
//   - transcript.log: append-only command/output/exit blocks, execution order
//   - summary.json: machine-readable run summary, full overwrite per write
//   - journal.txt: init-system journal for the current boot (diagnostics only)
//   - diagnostics.txt: sectioned introspection output (diagnostics only)
//
// The transcript is synced to disk after every block so a crash mid-run
// leaves a readable partial transcript. The summary is always written as a
// whole file, so the persisted state is the last value written, never a
// merge. All writers assume a single owner per run; concurrent runs must
// use distinct output directories.
package report
