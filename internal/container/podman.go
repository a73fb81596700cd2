// SPDX-License-Identifier: MPL-2.0

package container

import "github.com/andonyns/Data-Management-Service/internal/process"

// PodmanEngine implements the Engine interface using Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine() *PodmanEngine {
	return &PodmanEngine{BaseCLIEngine: NewBaseCLIEngine(string(EngineTypePodman))}
}

// VersionCommand returns the Podman version probe.
func (e *PodmanEngine) VersionCommand() process.Command {
	return e.Command("version", "--format", "{{.Version}}")
}
