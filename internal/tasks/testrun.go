// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/step"
)

// ErrTestAssembliesNotFound is the sentinel error wrapped by TestAssembliesNotFoundError.
var ErrTestAssembliesNotFound = errors.New("no test assemblies found")

// TestAssembliesNotFoundError is returned when a test step finds nothing to run.
type TestAssembliesNotFoundError struct {
	Pattern       string
	Root          string
	Configuration string
}

// Error implements the error interface.
func (e *TestAssembliesNotFoundError) Error() string {
	return fmt.Sprintf("no %s assemblies under %s for configuration %s (build first)", e.Pattern, e.Root, e.Configuration)
}

// Unwrap returns ErrTestAssembliesNotFound for errors.Is() compatibility.
func (e *TestAssembliesNotFoundError) Unwrap() error { return ErrTestAssembliesNotFound }

// discoverTestAssemblies returns the assemblies under root whose file name
// matches pattern and that live in a bin/<configuration> output directory.
// Copies of the same assembly in other projects' outputs are reported once.
func discoverTestAssemblies(root, pattern, configuration string) ([]string, error) {
	binSegment := "/bin/" + configuration + "/"
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "obj" || d.Name() == "node_modules" || (strings.HasPrefix(d.Name(), ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("test filter %q: %w", pattern, err)
		}
		if ok && strings.Contains(filepath.ToSlash(path), binSegment) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(found)
	seen := make(map[string]bool, len(found))
	unique := found[:0]
	for _, p := range found {
		if base := filepath.Base(p); !seen[base] {
			seen[base] = true
			unique = append(unique, p)
		}
	}
	return unique, nil
}

func (t *Toolchain) testCommand(assembly string, extra []string) process.Command {
	name := strings.TrimSuffix(filepath.Base(assembly), filepath.Ext(assembly))
	args := []string{
		"test", assembly,
		"--logger", "trx;LogFileName=" + name + ".trx",
		"--results-directory", t.path(t.cfg.Project.TestResults).String(),
		"--nologo",
	}
	return t.dotnet(append(args, extra...)...)
}

func (t *Toolchain) testStep(name step.Name, description, filter string) step.Step {
	pattern := filter + ".dll"
	root := func() string { return t.solutionRoot().String() }

	return newToolStep(name, description,
		func() []string {
			extra, _ := splitArgs("test.extra_args", t.cfg.Test.ExtraArgs)
			assemblies, err := discoverTestAssemblies(root(), pattern, t.configuration())
			if err != nil || len(assemblies) == 0 {
				return []string{fmt.Sprintf("dotnet test each %s under %s/**/bin/%s", pattern, root(), t.configuration())}
			}
			cmds := make([]process.Command, 0, len(assemblies))
			for _, a := range assemblies {
				cmds = append(cmds, t.testCommand(a, extra))
			}
			return commandPlan(cmds...)
		},
		func(ctx context.Context) error {
			extra, err := splitArgs("test.extra_args", t.cfg.Test.ExtraArgs)
			if err != nil {
				return err
			}
			assemblies, err := discoverTestAssemblies(root(), pattern, t.configuration())
			if err != nil {
				return fmt.Errorf("discover test assemblies: %w", err)
			}
			if len(assemblies) == 0 {
				return &TestAssembliesNotFoundError{Pattern: pattern, Root: root(), Configuration: t.configuration()}
			}
			slog.Info("running test assemblies", "step", name, "count", len(assemblies))
			for _, a := range assemblies {
				if err := t.run(ctx, t.testCommand(a, extra)); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// UnitTestStep runs every unit test assembly of the current configuration.
func (t *Toolchain) UnitTestStep() step.Step {
	return t.testStep(StepUnitTests, "Run unit tests", t.cfg.Test.UnitFilter)
}

// E2ETestStep runs every end-to-end test assembly of the current configuration.
func (t *Toolchain) E2ETestStep() step.Step {
	return t.testStep(StepE2ETests, "Run end-to-end tests", t.cfg.Test.E2EFilter)
}
