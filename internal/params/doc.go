// SPDX-License-Identifier: MPL-2.0

// Package params resolves the raw invocation options of a build run into an
// immutable, validated Parameters value.
//
// Enumerated options (configuration) are closed types validated once by Parse.
// The command name is normalized here but checked against the registry during
// resolution, so an unknown command surfaces as an unknown-command error.
package params
