// SPDX-License-Identifier: MPL-2.0

package pipeline

import "fmt"

const (
	// ParsingArgs resolves raw options into a parameter set.
	ParsingArgs State = iota
	// Validating checks the configuration and provisions local-build tools.
	Validating
	// Resolving looks the command up in the registry.
	Resolving
	// Executing runs the command's steps.
	Executing
	// Done means every step succeeded or, in a dry run, would run.
	Done
	// Failed is terminal for any error.
	Failed
)

// State is a stage of a pipeline run.
type State int

// String returns the state name.
func (s State) String() string {
	switch s {
	case ParsingArgs:
		return "ParsingArgs"
	case Validating:
		return "Validating"
	case Resolving:
		return "Resolving"
	case Executing:
		return "Executing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool { return s == Done || s == Failed }
