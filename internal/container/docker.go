// SPDX-License-Identifier: MPL-2.0

package container

import "github.com/andonyns/Data-Management-Service/internal/process"

// DockerEngine implements the Engine interface using Docker CLI.
// It embeds BaseCLIEngine for common CLI operations.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine() *DockerEngine {
	return &DockerEngine{BaseCLIEngine: NewBaseCLIEngine(string(EngineTypeDocker))}
}

// VersionCommand asks the daemon for its version, so a CLI without a
// reachable daemon counts as unavailable.
func (e *DockerEngine) VersionCommand() process.Command {
	return e.Command("version", "--format", "{{.Server.Version}}")
}
