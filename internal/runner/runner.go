// Package runner abstracts external command execution so callers that shell
// out (plugin installs, doctor-style probes) can be tested without spawning
// processes.
package runner

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/jander99/overture-sub000/internal/errors"
)

// Result captures one command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands.
type Runner interface {
	// Run executes name with args and returns the captured result. A
	// non-zero exit is reported in Result, not as an error; errors mean
	// the command could not be run at all.
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory for commands. Empty means inherit.
	Dir string
}

// NewExecRunner creates a process-spawning runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, capturing output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, errors.Wrapf(err, "running %s", name)
	}
	return result, nil
}

// Call records one invocation seen by a RecordingRunner.
type Call struct {
	Name string
	Args []string
}

// RecordingRunner records invocations and replays scripted results.
// Test double.
type RecordingRunner struct {
	Calls   []Call
	Results map[string]*Result
	Errs    map[string]error
}

// NewRecordingRunner creates an empty recording runner.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{
		Results: make(map[string]*Result),
		Errs:    make(map[string]error),
	}
}

// Run records the call and returns the scripted result for name, defaulting
// to success with empty output.
func (r *RecordingRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
	if err, ok := r.Errs[name]; ok {
		return nil, err
	}
	if result, ok := r.Results[name]; ok {
		return result, nil
	}
	return &Result{}, nil
}
