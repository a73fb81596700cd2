// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/andonyns/Data-Management-Service/internal/dag"
	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

func noopStep(name step.Name) step.Step {
	return step.New(name, "noop", func(context.Context) error { return nil })
}

func namesOf(t *testing.T, r *Registry, c CommandName) []step.Name {
	t.Helper()
	steps, err := r.Lookup(c)
	if err != nil {
		t.Fatalf("Lookup(%s) error = %v", c, err)
	}
	return step.Names(steps)
}

func TestRegistry_CompositeExpansion(t *testing.T) {
	t.Parallel()

	clean, restore, build := noopStep("dotnet-clean"), noopStep("dotnet-restore"), noopStep("dotnet-build")
	stamp, publish := noopStep("stamp-assembly-info"), noopStep("dotnet-publish")

	// Declared out of dependency order on purpose.
	r, err := New(
		Definition{Name: BuildAndPublish, Parts: []Part{Run(stamp), Include(Build), Run(publish)}},
		Definition{Name: Build, Parts: []Part{Include(Clean), Run(restore), Run(build)}},
		Definition{Name: Clean, Parts: []Part{Run(clean)}},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	buildSteps := namesOf(t, r, Build)
	if want := []step.Name{"dotnet-clean", "dotnet-restore", "dotnet-build"}; !slices.Equal(buildSteps, want) {
		t.Errorf("Build = %v, want %v", buildSteps, want)
	}

	want := append(append([]step.Name{"stamp-assembly-info"}, buildSteps...), "dotnet-publish")
	if got := namesOf(t, r, BuildAndPublish); !slices.Equal(got, want) {
		t.Errorf("BuildAndPublish = %v, want %v", got, want)
	}

	// The composite shares step values with Build rather than copies.
	bp, _ := r.Lookup(BuildAndPublish)
	if bp[1] != clean {
		t.Error("composite command must reuse the included command's steps")
	}
}

func TestRegistry_LookupIsDeterministicAndIsolated(t *testing.T) {
	t.Parallel()

	r, err := New(Definition{Name: Clean, Parts: []Part{Run(noopStep("dotnet-clean"))}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, _ := r.Lookup(Clean)
	first[0] = noopStep("tampered")
	second, _ := r.Lookup(Clean)
	if second[0].Name() != "dotnet-clean" {
		t.Error("Lookup must return a copy of the step list")
	}
}

func TestRegistry_LookupUndefined(t *testing.T) {
	t.Parallel()

	r, err := New(Definition{Name: Clean, Parts: []Part{Run(noopStep("dotnet-clean"))}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, name := range []CommandName{DockerRun, "Rebuild"} {
		if _, err := r.Lookup(name); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("Lookup(%s) error = %v, want ErrUnknownCommand", name, err)
		}
		if _, err := r.Describe(name); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("Describe(%s) error = %v, want ErrUnknownCommand", name, err)
		}
	}
}

func TestRegistry_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	a, b := noopStep("a"), noopStep("b")
	tests := []struct {
		name      string
		defs      []Definition
		wantCycle bool
	}{
		{name: "empty command", defs: []Definition{{Name: Clean}}},
		{name: "not enumerated", defs: []Definition{{Name: "Rebuild", Parts: []Part{Run(a)}}}},
		{name: "duplicate name", defs: []Definition{
			{Name: Clean, Parts: []Part{Run(a)}},
			{Name: Clean, Parts: []Part{Run(b)}},
		}},
		{name: "blank description", defs: []Definition{{Name: Clean, Description: " \t", Parts: []Part{Run(a)}}}},
		{name: "undefined include", defs: []Definition{{Name: Build, Parts: []Part{Include(Clean)}}}},
		{name: "duplicate step after expansion", defs: []Definition{
			{Name: Clean, Parts: []Part{Run(a)}},
			{Name: Build, Parts: []Part{Include(Clean), Run(a)}},
		}},
		{name: "include cycle", wantCycle: true, defs: []Definition{
			{Name: Build, Parts: []Part{Include(BuildAndPublish)}},
			{Name: BuildAndPublish, Parts: []Part{Include(Build)}},
		}},
		{name: "self include", wantCycle: true, defs: []Definition{
			{Name: Build, Parts: []Part{Run(a), Include(Build)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.defs...)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("New() error = %v, want ErrInvalidDefinition", err)
			}
			if got := errors.Is(err, dag.ErrCycle); got != tt.wantCycle {
				t.Errorf("errors.Is(err, dag.ErrCycle) = %v, want %v (%v)", got, tt.wantCycle, err)
			}
		})
	}
}

func TestRegistry_CommandsAndDescribe(t *testing.T) {
	t.Parallel()

	r, err := New(
		Definition{Name: DockerRun, Description: "Run the image", Parts: []Part{Run(noopStep("docker-run"))}},
		Definition{Name: Clean, Description: "Clean outputs", Parts: []Part{Run(noopStep("dotnet-clean"))}},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := r.Commands(); !slices.Equal(got, []CommandName{Clean, DockerRun}) {
		t.Errorf("Commands() = %v, want [Clean DockerRun]", got)
	}
	if d, err := r.Describe(DockerRun); err != nil || d != "Run the image" {
		t.Errorf("Describe(DockerRun) = %q, %v", d, err)
	}
}

func TestPart_Accessors(t *testing.T) {
	t.Parallel()

	s := noopStep("docker-build")
	if p := Run(s); p.Step() != s {
		t.Error("Run(s).Step() must return s")
	} else if _, ok := p.Included(); ok {
		t.Error("a step part is not an include")
	}
	if name, ok := Include(Build).Included(); !ok || name != Build {
		t.Errorf("Include(Build).Included() = %s, %v", name, ok)
	}
}

func TestRegistry_BlankDescription(t *testing.T) {
	t.Parallel()

	_, err := New(Definition{Name: Clean, Description: "\n  ", Parts: []Part{Run(noopStep("dotnet-clean"))}})
	if !errors.Is(err, types.ErrInvalidDescriptionText) {
		t.Fatalf("New() error = %v, want ErrInvalidDescriptionText", err)
	}
	var defErr *InvalidDefinitionError
	if !errors.As(err, &defErr) || defErr.Command != Clean {
		t.Errorf("error should name the Clean definition, got %v", err)
	}
}
