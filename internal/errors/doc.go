// Package errors provides error handling conventions for the overture CLI.
//
// This package defines sentinel errors for common failure conditions, the
// programmatic error taxonomy surfaced to callers (LoadError, OperationError,
// PartialSyncError), and an ExitError type for CLI exit code handling.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [errors.Is]:
//
//	if errors.Is(err, overrs.ErrNoConfig) {
//	    // neither a user nor a project config exists
//	}
//
// # Taxonomy
//
// Callers distinguish failure kinds with [errors.As] rather than message
// text: a *LoadError means a file could not be read or parsed, a
// *OperationError names the single client step that failed, and a
// *PartialSyncError carries the per-client breakdown of a multi-client run
// in which other clients proceeded.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, locks, etc.)
package errors
