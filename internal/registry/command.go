// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// The closed set of commands the build accepts.
const (
	Clean           CommandName = "Clean"
	Build           CommandName = "Build"
	BuildAndPublish CommandName = "BuildAndPublish"
	UnitTest        CommandName = "UnitTest"
	E2ETest         CommandName = "E2ETest"
	DockerBuild     CommandName = "DockerBuild"
	DockerRun       CommandName = "DockerRun"
)

// ErrUnknownCommand is the sentinel error wrapped by UnknownCommandError.
var ErrUnknownCommand = errors.New("unknown command")

var allCommands = []CommandName{Clean, Build, BuildAndPublish, UnitTest, E2ETest, DockerBuild, DockerRun}

type (
	// CommandName is one of the enumerated build commands.
	CommandName string

	// UnknownCommandError is returned when a name is not one of the
	// enumerated commands, or the command has no definition.
	UnknownCommandError struct {
		Name string
	}
)

// AllCommands returns every command name in declaration order.
func AllCommands() []CommandName { return slices.Clone(allCommands) }

// ParseCommandName resolves s to a CommandName, ignoring case and
// surrounding whitespace.
func ParseCommandName(s string) (CommandName, error) {
	trimmed := strings.TrimSpace(s)
	for _, c := range allCommands {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", &UnknownCommandError{Name: s}
}

// String returns the string representation of the CommandName.
func (c CommandName) String() string { return string(c) }

// Validate returns an error if c is not one of the enumerated commands.
func (c CommandName) Validate() error {
	if !slices.Contains(allCommands, c) {
		return &UnknownCommandError{Name: string(c)}
	}
	return nil
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q (valid commands: %s)", e.Name, joinCommands(allCommands))
}

// Unwrap returns ErrUnknownCommand for errors.Is() compatibility.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

func joinCommands(names []CommandName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
