// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"

	"github.com/andonyns/Data-Management-Service/internal/app/pipeline"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/tasks"
	"github.com/andonyns/Data-Management-Service/internal/testutil"
	"github.com/andonyns/Data-Management-Service/internal/vcs"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }

// cli drives the root command against a temp repository with every tool
// launch recorded. Tests using it are not parallel: configureLogging swaps
// the process-wide slog default.
type cli struct {
	base   string
	rec    *testutil.CommandRecorder
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	app    *App
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	c := &cli{
		base:   t.TempDir(),
		rec:    testutil.NewCommandRecorder(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	testutil.MustMkdirAll(t, filepath.Join(c.base, "src"), 0o755)

	inv := process.New(
		process.WithExecCommand(c.rec.ContextCommandFunc(t)),
		process.WithLookPath(testutil.IdentityLookPath),
		process.WithOutput(c.stdout, c.stderr),
	)
	c.app = NewApp(Dependencies{
		BaseDir:   types.FilesystemPath(c.base),
		ConfigDir: types.FilesystemPath(filepath.Join(c.base, "user-config")),
		Invoker:   inv,
		Pipeline: []pipeline.Option{
			pipeline.WithToolchainOptions(tasks.WithCommitReader(func(types.FilesystemPath) (vcs.Commit, error) {
				return vcs.Commit{}, vcs.ErrNotRepository
			})),
		},
		HeadCommit: func(types.FilesystemPath) (vcs.Commit, error) {
			return vcs.Commit{Hash: "0123456789abcdef"}, nil
		},
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
	return c
}

func (c *cli) run(args ...string) error {
	root := NewRootCommand(c.app)
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	return root.ExecuteContext(context.Background())
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"nil", nil, types.ExitSuccess},
		{"exit error", &ExitError{Code: types.ExitStepFailed, Err: errors.New("boom")}, types.ExitStepFailed},
		{"wrapped exit error", errors.Join(errors.New("ctx"), &ExitError{Code: types.ExitEnvironment}), types.ExitEnvironment},
		{"cobra usage error", errors.New(`unknown flag: --nope`), types.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeOf(tt.err); got != tt.want {
				t.Errorf("exitCodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}))
	for _, name := range []string{"run", "list", "config"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("root.Find(%q) error = %v", name, err)
		}
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Error("root command should leave usage and error output to the error handler")
	}
}

func TestListCommand(t *testing.T) {
	c := newCLI(t)

	if err := c.run("list"); err != nil {
		t.Fatalf("list error = %v", err)
	}

	out := c.stdout.String()
	for _, want := range []string{
		"Clean", "Build", "BuildAndPublish", "UnitTest", "E2ETest", "DockerBuild", "DockerRun",
		"stamp-assembly-info", "dotnet-publish", "docker-run",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if n := len(c.rec.Invocations()); n != 0 {
		t.Errorf("list launched %d processes, want 0", n)
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	errorHandler(&buf, fang.Styles{}, &ExitError{Code: types.ExitUsage, Err: errors.New(`unknown command "Deploy"`)})
	if buf.Len() != 0 {
		t.Errorf("already rendered errors must not be printed again, got %q", buf.String())
	}

	errorHandler(&buf, fang.Styles{}, errors.New("unknown flag: --nope"))
	if !strings.Contains(strings.ToLower(buf.String()), "unknown flag: --nope") {
		t.Errorf("other errors should go to the default handler, got %q", buf.String())
	}
}

func TestRunCommand_FailurePrintedOnce(t *testing.T) {
	c := newCLI(t)

	err := c.run("run", "Deploy")
	if got := exitCodeOf(err); got != types.ExitUsage {
		t.Fatalf("exit code = %d, want %d", got, types.ExitUsage)
	}
	if n := strings.Count(c.stderr.String(), `unknown command "Deploy"`); n != 1 {
		t.Errorf("reason printed %d times, want once:\n%s", n, c.stderr.String())
	}
}
