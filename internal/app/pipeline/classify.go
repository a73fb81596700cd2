// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"

	"github.com/andonyns/Data-Management-Service/internal/bootstrap"
	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/internal/container"
	"github.com/andonyns/Data-Management-Service/internal/issue"
	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/registry"
	"github.com/andonyns/Data-Management-Service/internal/tasks"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

// IssueFor returns the catalog entry that best explains err. An issue
// attached with issue.ErrorContext wins over the error's type.
func IssueFor(err error) (issue.Id, bool) {
	if id, ok := issue.IssueOf(err); ok {
		return id, true
	}
	switch {
	case err == nil:
		return 0, false
	case errors.Is(err, params.ErrInvalidParameter):
		return issue.InvalidParameterId, true
	case errors.Is(err, registry.ErrUnknownCommand):
		return issue.UnknownCommandId, true
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound), errors.Is(err, config.ErrInvalidLoadOptions):
		return issue.ConfigLoadFailedId, true
	case errors.Is(err, bootstrap.ErrBootstrapFailed), errors.Is(err, bootstrap.ErrInvalidOptions):
		return issue.BootstrapFailedId, true
	case errors.Is(err, container.ErrEngineNotAvailable):
		return issue.ContainerEngineNotFoundId, true
	case errors.Is(err, tasks.ErrTestAssembliesNotFound):
		return issue.TestAssembliesNotFoundId, true
	case errors.Is(err, process.ErrProcessTimeout):
		return issue.ProcessTimeoutId, true
	case errors.Is(err, process.ErrProcessLaunch):
		return issue.ProcessLaunchFailedId, true
	default:
		return issue.StepFailedId, true
	}
}

// ExitCodeFor maps err to the process exit code: usage errors are 2, missing
// or broken tools and configuration are 3, anything else is a failed step.
func ExitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	id, _ := IssueFor(err)
	switch id {
	case issue.InvalidParameterId, issue.UnknownCommandId:
		return types.ExitUsage
	case issue.ProcessLaunchFailedId, issue.ConfigLoadFailedId, issue.BootstrapFailedId, issue.ContainerEngineNotFoundId:
		return types.ExitEnvironment
	default:
		return types.ExitStepFailed
	}
}
