// Package logging provides structured logging for the agif tool.
//
// This package wraps zap logger with convenience functions for the events
// the tool cares about: serial console traffic, capture state changes,
// partitions written and header patches.
//
// # Log Levels
//
//   - Debug: Raw console bytes, capture state transitions
//   - Info: Ports opened, partitions written, headers patched
//   - Warn: Non-fatal issues (part size differs under --no-size-check)
//   - Error: Failed operations
//
// # Configuration
//
// Logging is silent unless AGIF_LOG_LEVEL is set or --verbose is passed:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr so that stdout stays clean for progress and JSON
// reports.
package logging
