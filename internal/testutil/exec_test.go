// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestHelperProcess(t *testing.T) { RunHelperProcess() }

func TestCommandRecorder_RecordsAndResponds(t *testing.T) {
	t.Parallel()

	rec := NewCommandRecorder().
		On("dotnet", MockResponse{Stdout: "generic"}).
		On("dotnet build", MockResponse{Stdout: "building", ExitCode: 4})

	run := func(name string, args ...string) (string, int) {
		t.Helper()
		var out bytes.Buffer
		cmd := rec.ContextCommandFunc(t)(context.Background(), name, args...)
		cmd.Stdout = &out
		err := cmd.Run()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), exitErr.ExitCode()
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return out.String(), 0
	}

	if out, code := run("/usr/bin/dotnet", "build", "x.sln"); out != "building" || code != 4 {
		t.Errorf("dotnet build = (%q, %d), want (building, 4)", out, code)
	}
	if out, code := run("dotnet", "clean"); out != "generic" || code != 0 {
		t.Errorf("dotnet clean = (%q, %d), want (generic, 0)", out, code)
	}
	if out, code := run("docker", "build"); out != "" || code != 0 {
		t.Errorf("docker build = (%q, %d), want default", out, code)
	}

	rec.AssertInvocationCount(t, 3)
	want := []string{"dotnet build x.sln", "dotnet clean", "docker build"}
	got := rec.CommandLines()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CommandLines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if inv := rec.Invocations()[0]; inv.Path != "/usr/bin/dotnet" || inv.Name != "dotnet" {
		t.Errorf("first invocation = %+v", inv)
	}
}

func TestHasArgPair(t *testing.T) {
	t.Parallel()

	args := []string{"build", "-c", "Release", "--no-restore"}
	if !HasArgPair(args, "-c", "Release") {
		t.Error("expected -c Release pair")
	}
	if HasArgPair(args, "--no-restore", "x") {
		t.Error("unexpected pair for trailing flag")
	}
}
