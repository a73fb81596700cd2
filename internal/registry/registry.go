// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/andonyns/Data-Management-Service/internal/dag"
	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

// ErrInvalidDefinition is the sentinel error wrapped by InvalidDefinitionError.
var ErrInvalidDefinition = errors.New("invalid command definition")

type (
	// Part is one element of a command definition: a step, or the whole
	// step list of another command.
	Part struct {
		step    step.Step
		include CommandName
	}

	// Definition declares a command.
	Definition struct {
		Name        CommandName
		Description types.DescriptionText
		Parts       []Part
	}

	// Registry holds validated command definitions and their expanded step lists.
	Registry struct {
		defs     map[CommandName]Definition
		expanded map[CommandName][]step.Step
	}

	// InvalidDefinitionError describes why a set of definitions was rejected.
	InvalidDefinitionError struct {
		Command CommandName
		Reason  string
		Err     error
	}
)

// Run makes a part that runs s.
func Run(s step.Step) Part { return Part{step: s} }

// Include makes a part that runs every step of command name, in order.
func Include(name CommandName) Part { return Part{include: name} }

// Step returns the step of a step part, or nil for an include.
func (p Part) Step() step.Step { return p.step }

// Included returns the included command of an include part.
func (p Part) Included() (CommandName, bool) { return p.include, p.step == nil }

// New validates defs and builds a Registry.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:     make(map[CommandName]Definition, len(defs)),
		expanded: make(map[CommandName][]step.Step, len(defs)),
	}

	graph := dag.New[CommandName]()
	for _, def := range defs {
		if err := def.Name.Validate(); err != nil {
			return nil, &InvalidDefinitionError{Command: def.Name, Reason: "not an enumerated command", Err: err}
		}
		if _, dup := r.defs[def.Name]; dup {
			return nil, &InvalidDefinitionError{Command: def.Name, Reason: "defined more than once"}
		}
		if err := def.Description.Validate(); err != nil {
			return nil, &InvalidDefinitionError{Command: def.Name, Reason: "blank description", Err: err}
		}
		if len(def.Parts) == 0 {
			return nil, &InvalidDefinitionError{Command: def.Name, Reason: "has no steps"}
		}
		r.defs[def.Name] = def
		graph.AddNode(def.Name)
	}

	for _, def := range defs {
		for _, p := range def.Parts {
			included, ok := p.Included()
			if !ok {
				continue
			}
			if _, defined := r.defs[included]; !defined {
				return nil, &InvalidDefinitionError{Command: def.Name, Reason: fmt.Sprintf("includes undefined command %q", included)}
			}
			graph.AddEdge(included, def.Name)
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, &InvalidDefinitionError{Reason: "include cycle", Err: err}
	}

	for _, name := range order {
		steps, err := r.expand(r.defs[name])
		if err != nil {
			return nil, err
		}
		r.expanded[name] = steps
	}

	return r, nil
}

// expand concatenates the parts of def. Included commands are already expanded
// because definitions are processed in topological order.
func (r *Registry) expand(def Definition) ([]step.Step, error) {
	var steps []step.Step
	seen := make(map[step.Name]bool)
	add := func(s step.Step) error {
		if seen[s.Name()] {
			return &InvalidDefinitionError{Command: def.Name, Reason: fmt.Sprintf("step %q appears more than once", s.Name())}
		}
		seen[s.Name()] = true
		steps = append(steps, s)
		return nil
	}

	for _, p := range def.Parts {
		if included, ok := p.Included(); ok {
			for _, s := range r.expanded[included] {
				if err := add(s); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(p.step); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

// Lookup returns the ordered steps of command name.
func (r *Registry) Lookup(name CommandName) ([]step.Step, error) {
	steps, ok := r.expanded[name]
	if !ok {
		return nil, &UnknownCommandError{Name: string(name)}
	}
	return slices.Clone(steps), nil
}

// Commands returns the defined commands in declaration order of the
// enumerated set.
func (r *Registry) Commands() []CommandName {
	out := make([]CommandName, 0, len(r.defs))
	for _, c := range allCommands {
		if _, ok := r.defs[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Describe returns the description of command name.
func (r *Registry) Describe(name CommandName) (types.DescriptionText, error) {
	def, ok := r.defs[name]
	if !ok {
		return "", &UnknownCommandError{Name: string(name)}
	}
	return def.Description, nil
}

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	msg := "command definitions"
	if e.Command != "" {
		msg = fmt.Sprintf("command %s", e.Command)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns ErrInvalidDefinition and the cause, if any.
func (e *InvalidDefinitionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidDefinition, e.Err}
	}
	return []error{ErrInvalidDefinition}
}
