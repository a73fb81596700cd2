// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/internal/testutil"
)

// writeAssemblies creates empty files at the given paths relative to root.
func writeAssemblies(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		testutil.MustMkdirAll(t, filepath.Dir(p), 0o755)
		testutil.MustWriteFile(t, p, "")
	}
}

func TestDiscoverTestAssemblies(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeAssemblies(t, root,
		"core/Core.Tests.Unit/bin/Debug/net8.0/Core.Tests.Unit.dll",
		"core/Core.Tests.Unit/bin/Release/net8.0/Core.Tests.Unit.dll",
		"core/Core.Tests.Unit/obj/Debug/net8.0/Core.Tests.Unit.dll",
		"frontend/Api.Tests.Unit/bin/Debug/net8.0/Api.Tests.Unit.dll",
		// copied into a dependent project's output
		"frontend/Api.Tests.Unit/bin/Debug/net8.0/Core.Tests.Unit.dll",
		"frontend/Api.Tests.E2E/bin/Debug/net8.0/Api.Tests.E2E.dll",
		".git/bin/Debug/Hidden.Tests.Unit.dll",
	)

	got, err := discoverTestAssemblies(root, "*.Tests.Unit.dll", "Debug")
	if err != nil {
		t.Fatalf("discoverTestAssemblies() error = %v", err)
	}
	want := []string{
		filepath.Join(root, "core", "Core.Tests.Unit", "bin", "Debug", "net8.0", "Core.Tests.Unit.dll"),
		filepath.Join(root, "frontend", "Api.Tests.Unit", "bin", "Debug", "net8.0", "Api.Tests.Unit.dll"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("discoverTestAssemblies() = %v, want %v", got, want)
	}

	if _, err := discoverTestAssemblies(root, "[", "Debug"); err == nil {
		t.Error("malformed pattern should fail")
	}
}

func TestUnitTestStep_RunsEachAssembly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, params.RawParameters{})
	f.cfg.Test.ExtraArgs = "--blame-hang-timeout 5m"
	writeAssemblies(t, filepath.Join(f.base, "src"),
		"a/A.Tests.Unit/bin/Debug/net8.0/A.Tests.Unit.dll",
		"b/B.Tests.Unit/bin/Debug/net8.0/B.Tests.Unit.dll",
	)

	if err := f.toolchain().UnitTestStep().Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	invs := f.rec.Invocations()
	if len(invs) != 2 {
		t.Fatalf("invocations = %v", f.rec.CommandLines())
	}
	results := filepath.Join(f.base, "TestResults")
	for i, name := range []string{"A.Tests.Unit", "B.Tests.Unit"} {
		args := invs[i].Args
		if args[0] != "test" || !strings.HasSuffix(args[1], name+".dll") {
			t.Errorf("invocation %d args = %v", i, args)
		}
		if !testutil.HasArgPair(args, "--logger", "trx;LogFileName="+name+".trx") {
			t.Errorf("invocation %d missing trx logger: %v", i, args)
		}
		if !testutil.HasArgPair(args, "--results-directory", results) {
			t.Errorf("invocation %d missing results directory: %v", i, args)
		}
		if !testutil.HasArgPair(args, "--blame-hang-timeout", "5m") {
			t.Errorf("invocation %d missing extra args: %v", i, args)
		}
	}
}

func TestUnitTestStep_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, params.RawParameters{})
	f.rec.On("dotnet test", testutil.MockResponse{ExitCode: 3})
	writeAssemblies(t, filepath.Join(f.base, "src"),
		"a/A.Tests.Unit/bin/Debug/A.Tests.Unit.dll",
		"b/B.Tests.Unit/bin/Debug/B.Tests.Unit.dll",
	)

	err := f.toolchain().UnitTestStep().Run(context.Background())
	var exitErr *process.ExitStatusError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("Run() error = %v, want exit status 3", err)
	}
	f.rec.AssertInvocationCount(t, 1)
}

func TestE2ETestStep_NothingBuilt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, params.RawParameters{Configuration: "Release"})
	writeAssemblies(t, filepath.Join(f.base, "src"), "e/E.Tests.E2E/bin/Debug/E.Tests.E2E.dll")

	s := f.toolchain().E2ETestStep()
	err := s.Run(context.Background())
	if !errors.Is(err, ErrTestAssembliesNotFound) {
		t.Fatalf("Run() error = %v, want ErrTestAssembliesNotFound", err)
	}
	var notFound *TestAssembliesNotFoundError
	if !errors.As(err, &notFound) || notFound.Configuration != "Release" || notFound.Pattern != "*.Tests.E2E.dll" {
		t.Errorf("error details = %+v", notFound)
	}
	f.rec.AssertInvocationCount(t, 0)

	plan := s.(step.Planner).Plan()
	if len(plan) != 1 || !strings.Contains(plan[0], "bin/Release") {
		t.Errorf("Plan() = %v", plan)
	}
}
