// SPDX-License-Identifier: MPL-2.0

// Package types defines the cross-cutting value types shared by the build
// pipeline packages. Each semantically distinct string or number the pipeline
// passes around gets its own type so that a namespace can never be handed to a
// parameter expecting a path, and an exit code can never be confused with a
// count.
//
// This package is a leaf dependency: it imports only the standard library.
package types
