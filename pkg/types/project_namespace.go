// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidProjectNamespace is the sentinel error wrapped by InvalidProjectNamespaceError.
var ErrInvalidProjectNamespace = errors.New("invalid project namespace")

// projectNamespacePattern accepts lowercase alphanumeric segments joined by
// single '.', '_' or '-' separators ("ed-fi", "local", "edfi.dms").
var projectNamespacePattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*$`)

type (
	// ProjectNamespace identifies the owning organisation or registry namespace
	// of a project artefact, e.g. the "local" in "local/edfi-data-management-service".
	//
	// It wraps a string in an unexported field so it cannot be built from, or
	// passed as, a plain string by accident. Construct it with
	// NewProjectNamespace. Values compare equal with == when their underlying
	// strings are equal. The zero value is the empty namespace and is not valid.
	ProjectNamespace struct {
		value string
	}

	// InvalidProjectNamespaceError is returned when a namespace string does not
	// match the accepted pattern.
	InvalidProjectNamespaceError struct {
		Value string
	}
)

// NewProjectNamespace validates s and wraps it.
func NewProjectNamespace(s string) (ProjectNamespace, error) {
	ns := ProjectNamespace{value: s}
	if err := ns.Validate(); err != nil {
		return ProjectNamespace{}, err
	}
	return ns, nil
}

// MustProjectNamespace is NewProjectNamespace for compile-time constants.
// It panics on an invalid value.
func MustProjectNamespace(s string) ProjectNamespace {
	ns, err := NewProjectNamespace(s)
	if err != nil {
		panic(err)
	}
	return ns
}

// String returns the wrapped value.
func (n ProjectNamespace) String() string { return n.value }

// Equal reports whether n and other wrap the same value.
func (n ProjectNamespace) Equal(other ProjectNamespace) bool { return n == other }

// IsZero reports whether n is the zero value.
func (n ProjectNamespace) IsZero() bool { return n.value == "" }

// Validate returns an error if the namespace is empty or malformed.
func (n ProjectNamespace) Validate() error {
	if !projectNamespacePattern.MatchString(n.value) {
		return &InvalidProjectNamespaceError{Value: n.value}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (n ProjectNamespace) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and validates the input.
func (n *ProjectNamespace) UnmarshalText(text []byte) error {
	ns, err := NewProjectNamespace(string(text))
	if err != nil {
		return err
	}
	*n = ns
	return nil
}

// Error implements the error interface for InvalidProjectNamespaceError.
func (e *InvalidProjectNamespaceError) Error() string {
	return fmt.Sprintf("invalid project namespace %q: must be lowercase alphanumeric segments separated by '.', '_' or '-'", e.Value)
}

// Unwrap returns ErrInvalidProjectNamespace for errors.Is() compatibility.
func (e *InvalidProjectNamespaceError) Unwrap() error { return ErrInvalidProjectNamespace }
