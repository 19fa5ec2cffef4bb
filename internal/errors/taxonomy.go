package errors

import (
	"fmt"
	"strings"
)

// LoadError reports a canonical or native config file that could not be read
// or parsed. Line and Column are 1-indexed and zero when not derivable.
type LoadError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

// Error renders the path and, when known, the parse position.
func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// OperationError reports a failure in one target client's step during a
// multi-client operation. Other clients continue independently.
type OperationError struct {
	Client string
	Step   string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Client, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// PartialSyncError aggregates per-client failures from a sync or scan where
// at least one client succeeded or was attempted independently.
type PartialSyncError struct {
	Failures []*OperationError
}

func (e *PartialSyncError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("1 client failed: %v", e.Failures[0])
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d clients failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Clients returns the names of the clients that failed.
func (e *PartialSyncError) Clients() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Client)
	}
	return names
}
