// SPDX-License-Identifier: MPL-2.0

// Package registry maps the fixed set of build command names to ordered step
// lists.
//
// A command is defined as an ordered list of parts. A part is either a step or
// an include of another command, so composite commands reuse the steps of the
// commands they build on instead of duplicating them. Definitions are checked
// once when the Registry is created: includes must resolve, cycles are
// rejected, and no step may appear twice in an expanded command.
package registry
