// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	helperWantEnv     = "GO_WANT_HELPER_PROCESS"
	helperExitCodeEnv = "GO_HELPER_EXIT_CODE"
	helperStdoutEnv   = "GO_HELPER_STDOUT"
	helperStderrEnv   = "GO_HELPER_STDERR"
	helperSleepEnv    = "GO_HELPER_SLEEP"
	helperEchoEnvEnv  = "GO_HELPER_ECHO_ENV"
	helperEchoWdEnv   = "GO_HELPER_ECHO_WD"
)

type (
	// MockResponse is what a mocked process does when launched.
	MockResponse struct {
		// ExitCode is the exit code to return (0 = success).
		ExitCode int
		// Stdout is written to stdout before exiting.
		Stdout string
		// Stderr is written to stderr before exiting.
		Stderr string
		// Sleep delays the exit, for timeout and cancellation tests.
		Sleep time.Duration
		// EchoEnv names an environment variable whose value is written to stdout.
		EchoEnv string
		// EchoWd writes the working directory to stdout.
		EchoWd bool
	}

	// CommandRecorder captures the commands a component launches and replaces
	// them with re-executions of the test binary running TestHelperProcess.
	CommandRecorder struct {
		mu          sync.Mutex
		invocations []Invocation
		// Default is used when no entry in Responses matches.
		Default MockResponse
		// Responses are keyed by "tool" or "tool firstArg", where tool is the
		// base name of the launched executable. The longer key wins.
		Responses map[string]MockResponse
	}

	// Invocation is one recorded launch.
	Invocation struct {
		// Name is the base name of the executable.
		Name string
		// Path is the executable exactly as passed to the exec function.
		Path string
		// Args are the arguments passed to the command.
		Args []string
		// Cmd is the prepared command, for inspecting Dir and Env after Run.
		Cmd *exec.Cmd
	}
)

// NewCommandRecorder creates a recorder whose processes succeed silently.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{Responses: make(map[string]MockResponse)}
}

// On registers the response for a tool, optionally narrowed by its first argument.
func (m *CommandRecorder) On(key string, resp MockResponse) *CommandRecorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[key] = resp
	return m
}

// ContextCommandFunc returns a function that can replace exec.CommandContext.
// The context is honored, so timeouts and cancellation kill the helper.
func (m *CommandRecorder) ContextCommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		resp := m.responseFor(name, args)

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			helperWantEnv + "=1",
			fmt.Sprintf("%s=%d", helperExitCodeEnv, resp.ExitCode),
			fmt.Sprintf("%s=%s", helperStdoutEnv, resp.Stdout),
			fmt.Sprintf("%s=%s", helperStderrEnv, resp.Stderr),
			fmt.Sprintf("%s=%s", helperSleepEnv, resp.Sleep),
			fmt.Sprintf("%s=%s", helperEchoEnvEnv, resp.EchoEnv),
			fmt.Sprintf("%s=%t", helperEchoWdEnv, resp.EchoWd),
		}

		m.mu.Lock()
		m.invocations = append(m.invocations, Invocation{
			Name: filepath.Base(name),
			Path: name,
			Args: slices.Clone(args),
			Cmd:  cmd,
		})
		m.mu.Unlock()

		return cmd
	}
}

// IdentityLookPath resolves every executable to itself, so tests never
// depend on the tools installed on the host.
func IdentityLookPath(file string) (string, error) { return file, nil }

func (m *CommandRecorder) responseFor(name string, args []string) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	tool := filepath.Base(name)
	if len(args) > 0 {
		if resp, ok := m.Responses[tool+" "+args[0]]; ok {
			return resp
		}
	}
	if resp, ok := m.Responses[tool]; ok {
		return resp
	}
	return m.Default
}

// Invocations returns a copy of every recorded launch, in order.
func (m *CommandRecorder) Invocations() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.invocations)
}

// CommandLines renders each invocation as "tool arg1 arg2".
func (m *CommandRecorder) CommandLines() []string {
	invs := m.Invocations()
	lines := make([]string, 0, len(invs))
	for _, inv := range invs {
		lines = append(lines, strings.TrimSpace(inv.Name+" "+strings.Join(inv.Args, " ")))
	}
	return lines
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *CommandRecorder) LastInvocation() *Invocation {
	invs := m.Invocations()
	if len(invs) == 0 {
		return nil
	}
	return &invs[len(invs)-1]
}

// AssertInvocationCount verifies the number of command invocations.
func (m *CommandRecorder) AssertInvocationCount(t testing.TB, expected int) {
	t.Helper()
	if got := len(m.Invocations()); got != expected {
		t.Errorf("expected %d invocations, got %d: %v", expected, got, m.CommandLines())
	}
}

// AssertArgsContain verifies that the last invocation args contain the expected string.
func (m *CommandRecorder) AssertArgsContain(t testing.TB, expected string) {
	t.Helper()
	inv := m.LastInvocation()
	if inv == nil {
		t.Fatalf("expected args to contain %q but no commands were invoked", expected)
	}
	if argsStr := strings.Join(inv.Args, " "); !strings.Contains(argsStr, expected) {
		t.Errorf("expected args to contain %q, got: %v", expected, inv.Args)
	}
}

// HasArgPair checks if args contain a flag-value pair (e.g., "-c", "Release").
func HasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// RunHelperProcess is the body of each package's TestHelperProcess. It does
// nothing unless the binary was launched by a CommandRecorder.
//
//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }
func RunHelperProcess() {
	if os.Getenv(helperWantEnv) != "1" {
		return
	}

	if d, err := time.ParseDuration(os.Getenv(helperSleepEnv)); err == nil && d > 0 {
		time.Sleep(d)
	}
	if stdout := os.Getenv(helperStdoutEnv); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv(helperStderrEnv); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}
	if name := os.Getenv(helperEchoEnvEnv); name != "" {
		fmt.Fprint(os.Stdout, os.Getenv(name))
	}
	if os.Getenv(helperEchoWdEnv) == "true" {
		if wd, err := os.Getwd(); err == nil {
			fmt.Fprint(os.Stdout, wd)
		}
	}

	exitCode, _ := strconv.Atoi(os.Getenv(helperExitCodeEnv))
	os.Exit(exitCode)
}
