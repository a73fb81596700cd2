// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/andonyns/Data-Management-Service/internal/testutil"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

type (
	// trace records the order in which step bodies ran.
	trace struct {
		mu  sync.Mutex
		ran []Name
	}

	recordingObserver struct {
		started  []Name
		finished []Result
	}

	codedError struct{ code types.ExitCode }

	plannedStep struct {
		Step
		plan []string
	}
)

func (t *trace) step(name Name, err error) Step {
	return New(name, "test step "+string(name), func(context.Context) error {
		t.mu.Lock()
		t.ran = append(t.ran, name)
		t.mu.Unlock()
		return err
	})
}

func (o *recordingObserver) StepStarted(s Step, _, _ int) { o.started = append(o.started, s.Name()) }
func (o *recordingObserver) StepFinished(r Result, _, _ int) {
	o.finished = append(o.finished, r)
}

func (e *codedError) Error() string            { return fmt.Sprintf("exited %d", e.code) }
func (e *codedError) ExitCode() types.ExitCode { return e.code }

func (p *plannedStep) Plan() []string { return p.plan }

func statuses(r RunResult) []Status {
	out := make([]Status, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Status
	}
	return out
}

func TestExecutor_AllSucceed(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	steps := []Step{tr.step("dotnet-clean", nil), tr.step("dotnet-restore", nil), tr.step("dotnet-build", nil)}

	result := NewExecutor().Execute(context.Background(), "Build", steps)

	if !result.Succeeded() {
		t.Fatalf("Execute() err = %v, want success", result.Err)
	}
	if want := []Name{"dotnet-clean", "dotnet-restore", "dotnet-build"}; !slices.Equal(tr.ran, want) {
		t.Errorf("ran %v, want %v", tr.ran, want)
	}
	if got := result.Count(StatusSucceeded); got != 3 {
		t.Errorf("succeeded count = %d, want 3", got)
	}
	if result.Command != "Build" {
		t.Errorf("Command = %q", result.Command)
	}
	if result.ID == uuid.Nil {
		t.Error("run ID must be set")
	}
}

func TestExecutor_FailFast(t *testing.T) {
	t.Parallel()

	for k := range 4 {
		t.Run(fmt.Sprintf("step %d fails", k+1), func(t *testing.T) {
			t.Parallel()

			tr := &trace{}
			cause := errors.New("boom")
			names := []Name{"one", "two", "three", "four"}
			steps := make([]Step, len(names))
			for i, n := range names {
				var err error
				if i == k {
					err = cause
				}
				steps[i] = tr.step(n, err)
			}

			result := NewExecutor().Execute(context.Background(), "Build", steps)

			if !slices.Equal(tr.ran, names[:k+1]) {
				t.Errorf("ran %v, want %v", tr.ran, names[:k+1])
			}
			if result.Succeeded() {
				t.Fatal("Execute() succeeded, want failure")
			}
			if !errors.Is(result.Err, ErrStepFailed) || !errors.Is(result.Err, cause) {
				t.Errorf("Err = %v, want ErrStepFailed wrapping cause", result.Err)
			}
			var failure *Failure
			if !errors.As(result.Err, &failure) || failure.Step != names[k] {
				t.Errorf("Failure.Step = %v, want %s", failure, names[k])
			}
			if len(result.Steps) != len(names) {
				t.Fatalf("recorded %d results, want %d", len(result.Steps), len(names))
			}
			for i, s := range result.Steps {
				want := StatusSucceeded
				switch {
				case i == k:
					want = StatusFailed
				case i > k:
					want = StatusSkipped
				}
				if s.Status != want {
					t.Errorf("step %s status = %v, want %v", s.Step, s.Status, want)
				}
			}
			if failed, ok := result.FailedStep(); !ok || failed.Step != names[k] {
				t.Errorf("FailedStep() = %v, %v", failed.Step, ok)
			}
		})
	}
}

func TestExecutor_ExitCodeCarriedToFailure(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	wrapped := fmt.Errorf("dotnet build: %w", &codedError{code: 3})
	result := NewExecutor().Execute(context.Background(), "Build", []Step{tr.step("dotnet-build", wrapped)})

	var failure *Failure
	if !errors.As(result.Err, &failure) {
		t.Fatalf("Err = %v, want *Failure", result.Err)
	}
	if !failure.HasExitCode || failure.ExitCode != 3 {
		t.Errorf("Failure exit code = (%d, %v), want (3, true)", failure.ExitCode, failure.HasExitCode)
	}
	if r := result.Steps[0]; !r.HasExitCode || r.ExitCode != 3 {
		t.Errorf("Result exit code = (%d, %v), want (3, true)", r.ExitCode, r.HasExitCode)
	}
}

func TestExecutor_PanicBecomesFailure(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	steps := []Step{
		New("explode", "panics", func(context.Context) error { panic("nil map") }),
		tr.step("after", nil),
	}

	result := NewExecutor().Execute(context.Background(), "Build", steps)

	if !errors.Is(result.Err, ErrStepPanicked) {
		t.Fatalf("Err = %v, want ErrStepPanicked", result.Err)
	}
	if len(tr.ran) != 0 {
		t.Errorf("steps after a panic must not run, ran %v", tr.ran)
	}
	if got := statuses(result); !slices.Equal(got, []Status{StatusFailed, StatusSkipped}) {
		t.Errorf("statuses = %v", got)
	}
}

func TestExecutor_DryRun(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	obs := &recordingObserver{}
	steps := []Step{
		tr.step("stamp-assembly-info", nil),
		&plannedStep{Step: tr.step("dotnet-clean", errors.New("never")), plan: []string{"dotnet clean x.sln"}},
		tr.step("dotnet-publish", nil),
	}

	result := NewExecutor(WithDryRun(true), WithObserver(obs)).Execute(context.Background(), "BuildAndPublish", steps)

	if !result.Succeeded() || !result.DryRun {
		t.Fatalf("dry run result = %+v", result)
	}
	if len(tr.ran) != 0 {
		t.Errorf("dry run invoked step bodies: %v", tr.ran)
	}
	if len(obs.started) != 0 {
		t.Errorf("StepStarted called in dry run: %v", obs.started)
	}
	if len(obs.finished) != 3 {
		t.Fatalf("StepFinished called %d times, want 3", len(obs.finished))
	}
	want := []Name{"stamp-assembly-info", "dotnet-clean", "dotnet-publish"}
	for i, r := range obs.finished {
		if r.Step != want[i] || r.Status != StatusWouldRun {
			t.Errorf("finished[%d] = %s/%v, want %s/would run", i, r.Step, r.Status, want[i])
		}
	}
	if plan := result.Steps[1].Plan; !slices.Equal(plan, []string{"dotnet clean x.sln"}) {
		t.Errorf("Plan = %v", plan)
	}
}

func TestExecutor_Cancellation(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	ctx, cancel := context.WithCancel(context.Background())
	steps := []Step{
		New("first", "cancels the run", func(context.Context) error {
			cancel()
			return nil
		}),
		tr.step("second", nil),
		tr.step("third", nil),
	}

	result := NewExecutor().Execute(ctx, "Build", steps)

	if !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", result.Err)
	}
	if errors.Is(result.Err, ErrStepFailed) {
		t.Error("a cancelled run is not a step failure")
	}
	if len(tr.ran) != 0 {
		t.Errorf("steps after cancellation ran: %v", tr.ran)
	}
	if got := statuses(result); !slices.Equal(got, []Status{StatusSucceeded, StatusSkipped, StatusSkipped}) {
		t.Errorf("statuses = %v", got)
	}
}

func TestExecutor_NoSteps(t *testing.T) {
	t.Parallel()

	result := NewExecutor().Execute(context.Background(), "Build", nil)
	if !errors.Is(result.Err, ErrNoSteps) {
		t.Errorf("Err = %v, want ErrNoSteps", result.Err)
	}
}

func TestExecutor_TimingsAndObserver(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	clock.AutoStep(time.Second)
	id := uuid.MustParse("6f1c2a4e-8d1b-4c39-9a55-0d7e2b1f3c88")
	obs := &recordingObserver{}
	tr := &trace{}

	result := NewExecutor(
		WithClock(clock),
		WithIDGenerator(func() uuid.UUID { return id }),
		WithObserver(obs),
	).Execute(context.Background(), "UnitTest", []Step{tr.step("unit-tests", nil), tr.step("e2e-tests", nil)})

	if result.ID != id {
		t.Errorf("ID = %v, want %v", result.ID, id)
	}
	for _, r := range result.Steps {
		if r.Duration != time.Second {
			t.Errorf("step %s duration = %v, want 1s", r.Step, r.Duration)
		}
	}
	// run start, 2 x (step start, step end), run end
	if result.Duration != 5*time.Second {
		t.Errorf("run duration = %v, want 5s", result.Duration)
	}
	if !slices.Equal(obs.started, []Name{"unit-tests", "e2e-tests"}) {
		t.Errorf("started = %v", obs.started)
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	tests := map[Status]string{
		StatusSucceeded: "succeeded",
		StatusFailed:    "failed",
		StatusSkipped:   "skipped",
		StatusWouldRun:  "would run",
		Status(42):      "Status(42)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(status), got, want)
		}
	}
}
