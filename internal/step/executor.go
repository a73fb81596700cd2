// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

type (
	// Clock supplies the time used for step timings.
	Clock interface {
		Now() time.Time
	}

	// Observer is notified as steps progress. Implementations must not block.
	Observer interface {
		// StepStarted is called before a step body runs. It is not called for
		// skipped or would-run steps.
		StepStarted(s Step, index, total int)
		// StepFinished is called once for every step, whatever its status.
		StepFinished(r Result, index, total int)
	}

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)

	// Executor runs ordered step lists with fail-fast semantics.
	Executor struct {
		dryRun   bool
		observer Observer
		clock    Clock
		newID    func() uuid.UUID
	}

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithDryRun records steps as would-run instead of invoking them.
func WithDryRun(dryRun bool) ExecutorOption {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

// WithClock sets the clock used for timings.
func WithClock(c Clock) ExecutorOption {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithIDGenerator sets the run ID generator.
func WithIDGenerator(fn func() uuid.UUID) ExecutorOption {
	return func(e *Executor) {
		e.newID = fn
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		clock: systemClock{},
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DryRun reports whether the executor is in dry-run mode.
func (e *Executor) DryRun() bool { return e.dryRun }

// Execute runs steps in order on behalf of command.
//
// The first failing step stops the run: its error is wrapped in a *Failure,
// and every later step is recorded as skipped. Cancellation is checked before
// each step; a cancelled run skips the remaining steps and its error wraps
// the context error.
func (e *Executor) Execute(ctx context.Context, command string, steps []Step) RunResult {
	run := RunResult{
		ID:      e.newID(),
		Command: command,
		DryRun:  e.dryRun,
		Steps:   make([]Result, 0, len(steps)),
		Started: e.clock.Now(),
	}
	logger := slog.With("run", run.ID.String(), "command", command)

	if len(steps) == 0 {
		run.Err = fmt.Errorf("command %s: %w", command, ErrNoSteps)
		return run
	}

	total := len(steps)
	for i, s := range steps {
		if run.Err == nil {
			if err := ctx.Err(); err != nil {
				run.Err = fmt.Errorf("run cancelled before step %s: %w", s.Name(), err)
				logger.Warn("run cancelled", "next_step", s.Name())
			}
		}

		var res Result
		switch {
		case run.Err != nil:
			res = Result{Step: s.Name(), Description: s.Description(), Status: StatusSkipped}
		case e.dryRun:
			res = Result{Step: s.Name(), Description: s.Description(), Status: StatusWouldRun}
			if p, ok := s.(Planner); ok {
				res.Plan = p.Plan()
			}
			logger.Info("would run step", "step", s.Name())
		default:
			res = e.runStep(ctx, logger, s, i, total)
			if res.Status == StatusFailed {
				run.Err = &Failure{Step: res.Step, ExitCode: res.ExitCode, HasExitCode: res.HasExitCode, Err: res.Err}
				logger.Error("step failed", "step", res.Step, "error", res.Err)
			}
		}

		run.Steps = append(run.Steps, res)
		if e.observer != nil {
			e.observer.StepFinished(res, i, total)
		}
	}

	run.Duration = e.clock.Now().Sub(run.Started)
	return run
}

func (e *Executor) runStep(ctx context.Context, logger *slog.Logger, s Step, index, total int) Result {
	if e.observer != nil {
		e.observer.StepStarted(s, index, total)
	}
	logger.Debug("step started", "step", s.Name(), "index", index+1, "total", total)

	res := Result{Step: s.Name(), Description: s.Description(), Started: e.clock.Now()}
	err := invoke(ctx, s)
	res.Duration = e.clock.Now().Sub(res.Started)

	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.ExitCode, res.HasExitCode = exitCodeFrom(err)
		return res
	}

	res.Status = StatusSucceeded
	logger.Debug("step succeeded", "step", s.Name(), "duration", res.Duration)
	return res
}

// invoke runs the step body, converting a panic into an error.
func invoke(ctx context.Context, s Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("step panic", "step", s.Name(), "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	return s.Run(ctx)
}
