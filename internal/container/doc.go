// SPDX-License-Identifier: MPL-2.0

// Package container builds the command lines for the container engines
// (Docker/Podman) used by the image build and run steps.
//
// Engines do not launch anything themselves: BuildCommand and RunCommand
// return process.Command values that the caller hands to a process.Invoker,
// so dry-run, timeouts and cancellation apply to container invocations the
// same way they apply to dotnet.
//
// Engine selection uses Select with automatic fallback to the other engine
// when the preferred one does not answer a version probe.
package container
