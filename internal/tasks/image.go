// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"
	"fmt"

	"github.com/andonyns/Data-Management-Service/internal/container"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/step"
)

// Image returns the reference the image steps build and run:
// <namespace>/<package name>:<version>.
func (t *Toolchain) Image() container.ImageRef {
	return container.ImageRef{
		Namespace:  t.cfg.Namespace(),
		Repository: t.cfg.Project.PackageName,
		Tag:        t.params.Version.String(),
	}
}

func (t *Toolchain) preferredEngine() container.EngineType {
	return container.EngineType(t.cfg.Container.Engine)
}

func (t *Toolchain) buildOptions() container.BuildOptions {
	return container.BuildOptions{
		ContextDir: ".",
		Dockerfile: t.cfg.Container.Dockerfile,
		Image:      t.Image(),
	}
}

func (t *Toolchain) runOptions() (container.RunOptions, error) {
	ports, err := container.ParsePortMappings(t.cfg.Container.RunPorts)
	if err != nil {
		return container.RunOptions{}, fmt.Errorf("container.run_ports: %w", err)
	}
	extra, err := splitArgs("container.extra_run_args", t.cfg.Container.ExtraRunArgs)
	if err != nil {
		return container.RunOptions{}, err
	}
	return container.RunOptions{
		Image:     t.Image(),
		Name:      t.cfg.Container.Name,
		Ports:     ports,
		EnvFile:   t.cfg.Container.EnvFile,
		Remove:    true,
		Detach:    t.cfg.Container.Detach,
		ExtraArgs: extra,
	}, nil
}

// DockerBuildStep builds the service image from inside the container build
// context directory.
func (t *Toolchain) DockerBuildStep() step.Step {
	return newToolStep(StepDockerBuild, "Build the service container image",
		func() []string {
			engine, err := container.NewEngine(t.preferredEngine())
			if err != nil {
				return []string{err.Error()}
			}
			c := engine.BuildCommand(t.buildOptions())
			c.Dir = t.path(t.cfg.Container.ContextDir)
			return commandPlan(c)
		},
		func(ctx context.Context) error {
			if err := t.Image().Validate(); err != nil {
				return err
			}
			engine, err := t.selectEngine(ctx, t.invoker, t.preferredEngine())
			if err != nil {
				return err
			}
			return process.InDir(t.path(t.cfg.Container.ContextDir), func() error {
				return t.run(ctx, engine.BuildCommand(t.buildOptions()))
			})
		},
	)
}

// DockerRunStep starts a container from the service image.
func (t *Toolchain) DockerRunStep() step.Step {
	return newToolStep(StepDockerRun, "Run the service container",
		func() []string {
			engine, err := container.NewEngine(t.preferredEngine())
			if err != nil {
				return []string{err.Error()}
			}
			opts, err := t.runOptions()
			if err != nil {
				return []string{err.Error()}
			}
			return commandPlan(engine.RunCommand(opts))
		},
		func(ctx context.Context) error {
			if err := t.Image().Validate(); err != nil {
				return err
			}
			opts, err := t.runOptions()
			if err != nil {
				return err
			}
			engine, err := t.selectEngine(ctx, t.invoker, t.preferredEngine())
			if err != nil {
				return err
			}
			return t.run(ctx, engine.RunCommand(opts))
		},
	)
}
