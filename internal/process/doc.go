// SPDX-License-Identifier: MPL-2.0

// Package process launches the external tools the build pipeline drives
// (dotnet, docker/podman, nuget) and reports how they exited.
//
// An Invoker runs one Command at a time, synchronously, streaming the child's
// stdout and stderr to the configured writers as it produces them. A non-zero
// exit status is returned as data; only failures to launch, timeouts and
// cancellation are errors. RunChecked is the variant step bodies use: it turns
// a non-zero exit into an *ExitStatusError.
//
// Tool aliases (e.g. "nuget" pointing at a freshly downloaded executable) are
// explicit Invoker options rather than process-wide state.
//
// InDir and Pushd scope a change of the process working directory and restore
// the previous directory on every exit path.
package process
