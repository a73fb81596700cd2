// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid step name")

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(?:-[a-z0-9]+)*$`)

type (
	// Name identifies a step, e.g. "dotnet-build". Names are lowercase
	// kebab-case.
	Name string

	// InvalidNameError is returned when a step name is not kebab-case.
	InvalidNameError struct {
		Value Name
	}

	// Step is a named unit of build work.
	Step interface {
		Name() Name
		Description() string
		Run(ctx context.Context) error
	}

	// Planner is implemented by steps that can describe what they would do,
	// typically the command lines they launch. Used for dry-run output.
	Planner interface {
		Plan() []string
	}

	funcStep struct {
		name        Name
		description string
		fn          func(ctx context.Context) error
	}
)

// New builds a Step from a closure. It panics on an invalid name, since step
// names are fixed at definition time.
func New(name Name, description string, fn func(ctx context.Context) error) Step {
	if err := name.Validate(); err != nil {
		panic(err)
	}
	if fn == nil {
		panic(fmt.Sprintf("step %s: nil body", name))
	}
	return &funcStep{name: name, description: description, fn: fn}
}

func (s *funcStep) Name() Name                    { return s.name }
func (s *funcStep) Description() string           { return s.description }
func (s *funcStep) Run(ctx context.Context) error { return s.fn(ctx) }

// String returns the string representation of the Name.
func (n Name) String() string { return string(n) }

// Validate returns an error if the name is not lowercase kebab-case.
func (n Name) Validate() error {
	if !namePattern.MatchString(string(n)) {
		return &InvalidNameError{Value: n}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid step name %q (must be lowercase kebab-case)", e.Value)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// Names returns the names of steps, in order.
func Names(steps []Step) []Name {
	names := make([]Name, len(steps))
	for i, s := range steps {
		names[i] = s.Name()
	}
	return names
}
