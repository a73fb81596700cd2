// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives one build invocation through its states: parse
// the parameters, validate the environment, resolve the command to its steps
// and execute them. It decouples the CLI layer from the step machinery and
// classifies failures into issue catalog entries and exit codes.
package pipeline
