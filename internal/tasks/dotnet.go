// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"

	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/step"
)

// Step names.
const (
	StepDotnetClean       step.Name = "dotnet-clean"
	StepDotnetRestore     step.Name = "dotnet-restore"
	StepDotnetBuild       step.Name = "dotnet-build"
	StepStampAssemblyInfo step.Name = "stamp-assembly-info"
	StepDotnetPublish     step.Name = "dotnet-publish"
	StepUnitTests         step.Name = "unit-tests"
	StepE2ETests          step.Name = "e2e-tests"
	StepDockerBuild       step.Name = "docker-build"
	StepDockerRun         step.Name = "docker-run"
)

// NuGetTool is the executable name the restore step uses in local-build
// mode. The pipeline registers it as an invoker alias for the bootstrapped
// NuGet CLI.
const NuGetTool = "nuget"

func (t *Toolchain) dotnet(args ...string) process.Command {
	return process.Command{Executable: t.cfg.Build.Dotnet, Args: args}
}

// CleanStep removes the build outputs of the solution.
func (t *Toolchain) CleanStep() step.Step {
	cmd := func() process.Command {
		return t.dotnet("clean", t.solutionFile().String(), "-c", t.configuration(), "--nologo", "-v", "minimal")
	}
	return newToolStep(StepDotnetClean, "Remove build outputs",
		func() []string { return commandPlan(cmd()) },
		func(ctx context.Context) error { return t.run(ctx, cmd()) },
	)
}

// RestoreStep restores NuGet packages from the configured feed. Local builds
// use the bootstrapped NuGet CLI instead of dotnet.
func (t *Toolchain) RestoreStep() step.Step {
	cmd := func() process.Command {
		sln := t.solutionFile().String()
		feed := t.params.FeedURL.String()
		if t.params.LocalBuild {
			return process.Command{Executable: NuGetTool, Args: []string{"restore", sln, "-Source", feed, "-NonInteractive"}}
		}
		return t.dotnet("restore", sln, "--source", feed)
	}
	return newToolStep(StepDotnetRestore, "Restore NuGet packages",
		func() []string { return commandPlan(cmd()) },
		func(ctx context.Context) error { return t.run(ctx, cmd()) },
	)
}

// BuildStep compiles the solution.
func (t *Toolchain) BuildStep() step.Step {
	cmd := func() (process.Command, error) {
		extra, err := splitArgs("build.extra_args", t.cfg.Build.ExtraArgs)
		if err != nil {
			return process.Command{}, err
		}
		args := []string{"build", t.solutionFile().String(), "-c", t.configuration(), "--nologo", "--no-restore"}
		return t.dotnet(append(args, extra...)...), nil
	}
	return newToolStep(StepDotnetBuild, "Compile the solution",
		func() []string {
			c, err := cmd()
			if err != nil {
				return []string{err.Error()}
			}
			return commandPlan(c)
		},
		func(ctx context.Context) error {
			c, err := cmd()
			if err != nil {
				return err
			}
			return t.run(ctx, c)
		},
	)
}

// PublishStep publishes the API project to its publish directory.
func (t *Toolchain) PublishStep() step.Step {
	cmd := func() process.Command {
		project := t.apiProjectDir()
		return t.dotnet("publish", project.String(), "-c", t.configuration(),
			"-o", project.Join("publish").String(), "--nologo")
	}
	return newToolStep(StepDotnetPublish, "Publish the API application",
		func() []string { return commandPlan(cmd()) },
		func(ctx context.Context) error { return t.run(ctx, cmd()) },
	)
}
