// SPDX-License-Identifier: MPL-2.0

package step

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

const (
	// StatusSucceeded means the step body returned nil.
	StatusSucceeded Status = iota + 1
	// StatusFailed means the step body returned an error or panicked.
	StatusFailed
	// StatusSkipped means an earlier step failed or the run was cancelled.
	StatusSkipped
	// StatusWouldRun means the run was a dry run and the body was not invoked.
	StatusWouldRun
)

var (
	// ErrStepFailed is the sentinel error wrapped by Failure.
	ErrStepFailed = errors.New("step failed")
	// ErrStepPanicked is wrapped by the error recorded for a panicking step.
	ErrStepPanicked = errors.New("step panicked")
	// ErrNoSteps is returned when a run is given an empty step list.
	ErrNoSteps = errors.New("no steps to run")
)

type (
	// Status is the outcome of a single step.
	Status int

	// Result is the outcome of one step within a run.
	Result struct {
		Step        Name
		Description string
		Status      Status
		// ExitCode is meaningful only when HasExitCode is set, i.e. the step
		// failed because an external process exited non-zero.
		ExitCode    types.ExitCode
		HasExitCode bool
		Started     time.Time
		Duration    time.Duration
		Err         error
		// Plan holds the actions a dry run would have performed, when the step
		// can describe them.
		Plan []string
	}

	// RunResult aggregates the outcome of every step of one command run.
	RunResult struct {
		ID       uuid.UUID
		Command  string
		DryRun   bool
		Steps    []Result
		Started  time.Time
		Duration time.Duration
		// Err is nil when every step succeeded (or would run). Otherwise it is
		// a *Failure, or wraps the context error for a cancelled run.
		Err error
	}

	// Failure reports the step that stopped a run.
	Failure struct {
		Step        Name
		ExitCode    types.ExitCode
		HasExitCode bool
		Err         error
	}

	exitCoder interface {
		ExitCode() types.ExitCode
	}
)

// String returns a lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusWouldRun:
		return "would run"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Succeeded reports whether the run completed without error.
func (r RunResult) Succeeded() bool { return r.Err == nil }

// Count returns the number of steps with the given status.
func (r RunResult) Count(status Status) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// FailedStep returns the result of the step that failed, if any.
func (r RunResult) FailedStep() (Result, bool) {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return Result{}, false
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.HasExitCode {
		return fmt.Sprintf("step %s failed (exit code %d): %v", f.Step, f.ExitCode, f.Err)
	}
	return fmt.Sprintf("step %s failed: %v", f.Step, f.Err)
}

// Unwrap returns both ErrStepFailed and the underlying cause.
func (f *Failure) Unwrap() []error { return []error{ErrStepFailed, f.Err} }

// exitCodeFrom extracts a process exit code carried by err, if any.
func exitCodeFrom(err error) (types.ExitCode, bool) {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode(), true
	}
	return 0, false
}
