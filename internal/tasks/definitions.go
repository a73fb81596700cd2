// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"github.com/andonyns/Data-Management-Service/internal/registry"
)

// Definitions returns the build commands, each bound to t.
func Definitions(t *Toolchain) []registry.Definition {
	return []registry.Definition{
		{
			Name:        registry.Clean,
			Description: "Remove build outputs",
			Parts:       []registry.Part{registry.Run(t.CleanStep())},
		},
		{
			Name:        registry.Build,
			Description: "Clean, restore and compile the solution",
			Parts: []registry.Part{
				registry.Include(registry.Clean),
				registry.Run(t.RestoreStep()),
				registry.Run(t.BuildStep()),
			},
		},
		{
			Name:        registry.BuildAndPublish,
			Description: "Stamp version metadata, build, and publish the API",
			Parts: []registry.Part{
				registry.Run(t.StampAssemblyInfoStep()),
				registry.Include(registry.Build),
				registry.Run(t.PublishStep()),
			},
		},
		{
			Name:        registry.UnitTest,
			Description: "Run unit test assemblies",
			Parts:       []registry.Part{registry.Run(t.UnitTestStep())},
		},
		{
			Name:        registry.E2ETest,
			Description: "Run end-to-end test assemblies",
			Parts:       []registry.Part{registry.Run(t.E2ETestStep())},
		},
		{
			Name:        registry.DockerBuild,
			Description: "Build the service container image",
			Parts:       []registry.Part{registry.Run(t.DockerBuildStep())},
		},
		{
			Name:        registry.DockerRun,
			Description: "Run the service container",
			Parts:       []registry.Part{registry.Run(t.DockerRunStep())},
		},
	}
}

// NewRegistry builds the command registry for t.
func NewRegistry(t *Toolchain) (*registry.Registry, error) {
	return registry.New(Definitions(t)...)
}
