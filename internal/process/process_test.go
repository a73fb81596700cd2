// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andonyns/Data-Management-Service/internal/testutil"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }

func newTestInvoker(t *testing.T, rec *testutil.CommandRecorder, opts ...Option) (inv *Invoker, stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	base := []Option{
		WithExecCommand(rec.ContextCommandFunc(t)),
		WithLookPath(testutil.IdentityLookPath),
		WithOutput(stdout, stderr),
	}
	return New(append(base, opts...)...), stdout, stderr
}

func TestInvoker_Run_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resp     testutil.MockResponse
		wantCode types.ExitCode
		wantOut  string
		wantErr  string
	}{
		{name: "success", resp: testutil.MockResponse{Stdout: "Build succeeded."}, wantCode: 0, wantOut: "Build succeeded."},
		{name: "non-zero exit is data", resp: testutil.MockResponse{ExitCode: 1, Stderr: "error CS1002"}, wantCode: 1, wantErr: "error CS1002"},
		{name: "high exit code", resp: testutil.MockResponse{ExitCode: 137}, wantCode: 137},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := testutil.NewCommandRecorder()
			rec.Default = tt.resp
			inv, stdout, stderr := newTestInvoker(t, rec)

			code, err := inv.Run(context.Background(), Command{Executable: "dotnet", Args: []string{"build"}})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("Run() code = %d, want %d", code, tt.wantCode)
			}
			if stdout.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantOut)
			}
			if stderr.String() != tt.wantErr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestInvoker_Run_PassesArgsVerbatim(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder()
	inv, _, _ := newTestInvoker(t, rec)

	args := []string{"test", "--filter", "Category!=Slow", "--logger", "trx;LogFileName=a b.trx"}
	if _, err := inv.Run(context.Background(), Command{Executable: "dotnet", Args: args}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	last := rec.LastInvocation()
	if last == nil {
		t.Fatal("no invocation recorded")
	}
	if strings.Join(last.Args, "|") != strings.Join(args, "|") {
		t.Errorf("args = %q, want %q", last.Args, args)
	}
}

func TestInvoker_Run_LaunchFailure(t *testing.T) {
	t.Parallel()

	t.Run("not on PATH", func(t *testing.T) {
		t.Parallel()

		rec := testutil.NewCommandRecorder()
		inv, _, _ := newTestInvoker(t, rec, WithLookPath(func(file string) (string, error) {
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}))

		_, err := inv.Run(context.Background(), Command{Executable: "dotnet"})
		if !errors.Is(err, ErrProcessLaunch) {
			t.Fatalf("Run() error = %v, want ErrProcessLaunch", err)
		}
		if !errors.Is(err, exec.ErrNotFound) {
			t.Errorf("Run() error should wrap exec.ErrNotFound, got %v", err)
		}
		var launchErr *LaunchError
		if !errors.As(err, &launchErr) || launchErr.Executable != "dotnet" {
			t.Errorf("expected *LaunchError for dotnet, got %T", err)
		}
		rec.AssertInvocationCount(t, 0)
	})

	t.Run("start fails", func(t *testing.T) {
		t.Parallel()

		inv := New(
			WithLookPath(testutil.IdentityLookPath),
			WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		)
		missing := filepath.Join(t.TempDir(), "no-such-tool")

		_, err := inv.Run(context.Background(), Command{Executable: missing})
		if !errors.Is(err, ErrProcessLaunch) {
			t.Fatalf("Run() error = %v, want ErrProcessLaunch", err)
		}
	})

	t.Run("empty executable", func(t *testing.T) {
		t.Parallel()

		inv, _, _ := newTestInvoker(t, testutil.NewCommandRecorder())
		if _, err := inv.Run(context.Background(), Command{Executable: "  "}); !errors.Is(err, ErrProcessLaunch) {
			t.Errorf("Run() error = %v, want ErrProcessLaunch", err)
		}
	})
}

func TestInvoker_Run_Timeout(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder()
	rec.Default = testutil.MockResponse{Sleep: 10 * time.Second}
	inv, _, _ := newTestInvoker(t, rec, WithTimeout(200*time.Millisecond), WithWaitDelay(time.Second))

	start := time.Now()
	_, err := inv.Run(context.Background(), Command{Executable: "dotnet", Args: []string{"test"}})
	if !errors.Is(err, ErrProcessTimeout) {
		t.Fatalf("Run() error = %v, want ErrProcessTimeout", err)
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) || timeoutErr.Timeout != 200*time.Millisecond {
		t.Errorf("expected *TimeoutError with 200ms, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("process was not killed promptly: %v", elapsed)
	}
}

func TestInvoker_Run_CommandTimeoutOverridesDefault(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder()
	rec.Default = testutil.MockResponse{Sleep: 10 * time.Second}
	inv, _, _ := newTestInvoker(t, rec, WithTimeout(time.Hour), WithWaitDelay(time.Second))

	_, err := inv.Run(context.Background(), Command{Executable: "docker", Timeout: 100 * time.Millisecond})
	if !errors.Is(err, ErrProcessTimeout) {
		t.Fatalf("Run() error = %v, want ErrProcessTimeout", err)
	}
}

func TestInvoker_Run_Cancelled(t *testing.T) {
	t.Parallel()

	t.Run("before launch", func(t *testing.T) {
		t.Parallel()

		rec := testutil.NewCommandRecorder()
		inv, _, _ := newTestInvoker(t, rec)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := inv.Run(ctx, Command{Executable: "dotnet"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		rec.AssertInvocationCount(t, 0)
	})

	t.Run("while running", func(t *testing.T) {
		t.Parallel()

		rec := testutil.NewCommandRecorder()
		rec.Default = testutil.MockResponse{Sleep: 10 * time.Second}
		inv, _, _ := newTestInvoker(t, rec, WithWaitDelay(time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		_, err := inv.Run(ctx, Command{Executable: "dotnet"})
		if err == nil {
			t.Fatal("Run() expected error after cancellation")
		}
		if errors.Is(err, ErrProcessTimeout) {
			t.Errorf("caller cancellation must not be reported as a process timeout: %v", err)
		}
	})
}

func TestInvoker_Run_DirAndEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("dir", func(t *testing.T) {
		t.Parallel()

		rec := testutil.NewCommandRecorder()
		rec.Default = testutil.MockResponse{EchoWd: true}
		inv, stdout, _ := newTestInvoker(t, rec)

		if _, err := inv.Run(context.Background(), Command{Executable: "dotnet", Dir: types.FilesystemPath(dir)}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		got, _ := filepath.EvalSymlinks(stdout.String())
		want, _ := filepath.EvalSymlinks(dir)
		if got != want {
			t.Errorf("child working dir = %q, want %q", got, want)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Parallel()

		rec := testutil.NewCommandRecorder()
		rec.Default = testutil.MockResponse{EchoEnv: "DOTNET_CLI_TELEMETRY_OPTOUT"}
		inv, stdout, _ := newTestInvoker(t, rec)

		c := Command{Executable: "dotnet", Env: map[string]string{"DOTNET_CLI_TELEMETRY_OPTOUT": "1"}}
		if _, err := inv.Run(context.Background(), c); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if stdout.String() != "1" {
			t.Errorf("child saw env %q, want %q", stdout.String(), "1")
		}
	})
}

func TestInvoker_Alias(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder()
	inv, _, _ := newTestInvoker(t, rec)
	aliased := inv.With(WithAlias("nuget", "/opt/tools/nuget.exe"))

	if _, err := aliased.Run(context.Background(), Command{Executable: "nuget", Args: []string{"pack"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if last := rec.LastInvocation(); last.Path != "/opt/tools/nuget.exe" {
		t.Errorf("launched %q, want aliased path", last.Path)
	}

	if _, ok := inv.Alias("nuget"); ok {
		t.Error("With() must not mutate the original invoker")
	}
	if path, ok := aliased.Alias("nuget"); !ok || path != "/opt/tools/nuget.exe" {
		t.Errorf("Alias(nuget) = (%q, %v)", path, ok)
	}
}

func TestInvoker_RunChecked(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder().
		On("dotnet build", testutil.MockResponse{ExitCode: 1}).
		On("dotnet restore", testutil.MockResponse{})
	inv, _, _ := newTestInvoker(t, rec)

	if err := inv.RunChecked(context.Background(), Command{Executable: "dotnet", Args: []string{"restore"}}); err != nil {
		t.Errorf("RunChecked(restore) error = %v", err)
	}

	err := inv.RunChecked(context.Background(), Command{Executable: "dotnet", Args: []string{"build", "x.sln"}})
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("RunChecked(build) error = %v, want ErrNonZeroExit", err)
	}
	var statusErr *ExitStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *ExitStatusError, got %T", err)
	}
	if statusErr.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", statusErr.ExitCode())
	}
	if statusErr.CommandLine != "dotnet build x.sln" {
		t.Errorf("CommandLine = %q", statusErr.CommandLine)
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{name: "plain", cmd: Command{Executable: "dotnet", Args: []string{"clean"}}, want: "dotnet clean"},
		{name: "quoted space", cmd: Command{Executable: "docker", Args: []string{"build", "-t", "my image"}}, want: "docker build -t 'my image'"},
		{name: "no args", cmd: Command{Executable: "nuget"}, want: "nuget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
