// SPDX-License-Identifier: MPL-2.0

// Package tasks defines the concrete build steps (dotnet, test discovery,
// assembly-info stamping, container image build and run) and the command
// definitions that group them.
//
// Steps describe their command lines through step.Planner, which is what a
// dry run prints. Every external tool is launched through the Toolchain's
// process.Invoker.
package tasks
