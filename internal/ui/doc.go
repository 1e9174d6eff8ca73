// Package ui provides terminal UI components for agif-tool.
//
// Output follows a "run once and exit" pattern: commands print a header,
// report progress, and finish with a result box. Nothing waits for user
// input except the overwrite confirmation and Ctrl+C during a capture.
//
// # Components
//
//   - Header: Command banner showing operation name and parameters
//   - StepList: Aligned step lines, one step per partition
//   - Result: Success/failure/warning boxes with styled information
//   - Transcript: Raw console output box for verbose mode
//
// Runner ties these together for multi-step commands (unpack, pack), and
// RunCapture drives a Bubble Tea program with a live progress bar while a
// memory dump is read over the serial console. When stdout is not a
// terminal, RunCapture falls back to plain progress lines.
//
// # Logging Integration
//
// zap logging is silent unless AGIF_LOG_LEVEL is set, so the curated UI
// output is displayed cleanly. Logs go to stderr when enabled.
package ui
