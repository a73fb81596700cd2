// SPDX-License-Identifier: MPL-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

// defaultWaitDelay bounds how long Wait blocks on output pipes after the
// child has been killed.
const defaultWaitDelay = 5 * time.Second

var (
	// ErrProcessLaunch is the sentinel error wrapped by LaunchError.
	ErrProcessLaunch = errors.New("process launch failed")
	// ErrProcessTimeout is the sentinel error wrapped by TimeoutError.
	ErrProcessTimeout = errors.New("process timed out")
	// ErrNonZeroExit is the sentinel error wrapped by ExitStatusError.
	ErrNonZeroExit = errors.New("process exited with non-zero status")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves an executable name to a path.
	LookPathFunc func(file string) (string, error)

	// Option configures an Invoker.
	Option func(*Invoker)

	// Command is a single external tool invocation.
	Command struct {
		// Executable is the tool name or path. Aliases registered on the
		// Invoker are applied before PATH lookup.
		Executable string
		// Args are passed to the tool verbatim.
		Args []string
		// Dir is the child's working directory. Empty means inherit.
		Dir types.FilesystemPath
		// Env holds extra KEY=VALUE pairs layered over the inherited environment.
		Env map[string]string
		// Timeout overrides the Invoker timeout when positive.
		Timeout time.Duration
	}

	// Invoker launches external processes.
	Invoker struct {
		execCommand ExecCommandFunc
		lookPath    LookPathFunc
		stdout      io.Writer
		stderr      io.Writer
		timeout     time.Duration
		waitDelay   time.Duration
		aliases     map[string]string
	}

	// LaunchError is returned when the executable cannot be found or started.
	LaunchError struct {
		Executable string
		Err        error
	}

	// TimeoutError is returned when a process outlives its timeout and is killed.
	TimeoutError struct {
		Executable string
		Timeout    time.Duration
	}

	// ExitStatusError is returned by RunChecked when the process exits non-zero.
	ExitStatusError struct {
		CommandLine string
		Code        types.ExitCode
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(i *Invoker) {
		i.execCommand = fn
	}
}

// WithLookPath sets a custom executable resolver for testing.
func WithLookPath(fn LookPathFunc) Option {
	return func(i *Invoker) {
		i.lookPath = fn
	}
}

// WithOutput sets where child stdout and stderr are streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(i *Invoker) {
		i.stdout = stdout
		i.stderr = stderr
	}
}

// WithTimeout sets the default per-process timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		i.timeout = d
	}
}

// WithWaitDelay bounds how long to wait for output pipes after a kill.
func WithWaitDelay(d time.Duration) Option {
	return func(i *Invoker) {
		i.waitDelay = d
	}
}

// WithAlias makes Command.Executable == name launch path instead.
func WithAlias(name, path string) Option {
	return func(i *Invoker) {
		i.aliases[name] = path
	}
}

// New creates an Invoker that streams to the process stdout/stderr.
func New(opts ...Option) *Invoker {
	i := &Invoker{
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		waitDelay:   defaultWaitDelay,
		aliases:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// With returns a copy of the Invoker with opts applied on top.
func (i *Invoker) With(opts ...Option) *Invoker {
	clone := *i
	clone.aliases = maps.Clone(i.aliases)
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Timeout returns the default per-process timeout.
func (i *Invoker) Timeout() time.Duration { return i.timeout }

// Alias returns the path registered for name, if any.
func (i *Invoker) Alias(name string) (string, bool) {
	path, ok := i.aliases[name]
	return path, ok
}

// Run launches c, waits for it to finish and returns its exit code.
// A non-zero exit code is not an error.
func (i *Invoker) Run(ctx context.Context, c Command) (types.ExitCode, error) {
	if err := ctx.Err(); err != nil {
		return types.ExitStepFailed, fmt.Errorf("not launching %s: %w", c.Executable, err)
	}

	path, err := i.resolve(c.Executable)
	if err != nil {
		return types.ExitStepFailed, &LaunchError{Executable: c.Executable, Err: err}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = i.timeout
	}
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := i.execCommand(runCtx, path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = string(c.Dir)
	}
	if len(c.Env) > 0 {
		base := cmd.Env
		if base == nil {
			base = os.Environ()
		}
		cmd.Env = append(base, envToSlice(c.Env)...)
	}
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr
	cmd.WaitDelay = i.waitDelay

	slog.Debug("launching process", "command", c.String(), "dir", c.Dir, "timeout", timeout)

	if err := cmd.Start(); err != nil {
		return types.ExitStepFailed, &LaunchError{Executable: c.Executable, Err: err}
	}
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		return types.ExitStepFailed, fmt.Errorf("%s interrupted: %w", c.Executable, ctx.Err())
	case timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return types.ExitStepFailed, &TimeoutError{Executable: c.Executable, Timeout: timeout}
	}

	return exitCodeOf(c.Executable, waitErr)
}

// RunChecked is Run with a non-zero exit code reported as *ExitStatusError.
func (i *Invoker) RunChecked(ctx context.Context, c Command) error {
	code, err := i.Run(ctx, c)
	if err != nil {
		return err
	}
	if !code.IsSuccess() {
		return &ExitStatusError{CommandLine: c.String(), Code: code}
	}
	return nil
}

// resolve applies aliases and resolves the executable on PATH.
func (i *Invoker) resolve(executable string) (string, error) {
	if strings.TrimSpace(executable) == "" {
		return "", errors.New("empty executable name")
	}
	target := executable
	if alias, ok := i.aliases[executable]; ok {
		target = alias
	}
	return i.lookPath(target)
}

// exitCodeOf maps the error returned by Wait to an exit code.
func exitCodeOf(executable string, err error) (types.ExitCode, error) {
	if err == nil {
		return types.ExitSuccess, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			// Killed by a signal: ExitCode() reports -1.
			return types.ExitStepFailed, fmt.Errorf("%s terminated abnormally (%s): %w", executable, exitErr.String(), validateErr)
		}
		return code, nil
	}

	return types.ExitStepFailed, fmt.Errorf("failed waiting for %s: %w", executable, err)
}

func envToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

// String renders the command line with POSIX shell quoting, for logs and
// dry-run output.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Executable}, c.Args...) {
		quoted, err := syntax.Quote(p, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", p)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Executable, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *LaunchError) Unwrap() []error { return []error{ErrProcessLaunch, e.Err} }

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s and was killed", e.Executable, e.Timeout)
}

// Unwrap returns ErrProcessTimeout for errors.Is() compatibility.
func (e *TimeoutError) Unwrap() error { return ErrProcessTimeout }

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.CommandLine, e.Code)
}

// Unwrap returns ErrNonZeroExit for errors.Is() compatibility.
func (e *ExitStatusError) Unwrap() error { return ErrNonZeroExit }

// ExitCode returns the process exit code.
func (e *ExitStatusError) ExitCode() types.ExitCode { return e.Code }
