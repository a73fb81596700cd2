// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/andonyns/Data-Management-Service/internal/process"
)

const (
	// EngineTypePodman selects the Podman CLI.
	EngineTypePodman EngineType = "podman"
	// EngineTypeDocker selects the Docker CLI.
	EngineTypeDocker EngineType = "docker"
)

var (
	// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
	ErrEngineNotAvailable = errors.New("container engine not available")
	// ErrInvalidEngineType is the sentinel error wrapped by InvalidEngineTypeError.
	ErrInvalidEngineType = errors.New("invalid container engine type")
)

type (
	// EngineType identifies the container engine type.
	EngineType string

	// InvalidEngineTypeError is returned when an EngineType is not recognized.
	InvalidEngineTypeError struct {
		Value EngineType
	}

	// Engine builds container engine command lines.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// VersionCommand returns the probe used to check availability.
		VersionCommand() process.Command
		// BuildCommand returns the image build invocation.
		BuildCommand(opts BuildOptions) process.Command
		// RunCommand returns the container run invocation.
		RunCommand(opts RunOptions) process.Command
	}

	// EngineNotAvailableError is returned when neither the preferred engine
	// nor its fallback answers the version probe.
	EngineNotAvailableError struct {
		Engine EngineType
		Tried  []EngineType
	}
)

// Error implements the error interface.
func (e *InvalidEngineTypeError) Error() string {
	return fmt.Sprintf("invalid container engine type %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidEngineType for errors.Is() compatibility.
func (e *InvalidEngineTypeError) Unwrap() error { return ErrInvalidEngineType }

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available (tried %v)", e.Engine, e.Tried)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// String returns the string representation of the EngineType.
func (t EngineType) String() string { return string(t) }

// Validate returns an error if the EngineType is not docker or podman.
func (t EngineType) Validate() error {
	switch t {
	case EngineTypeDocker, EngineTypePodman:
		return nil
	default:
		return &InvalidEngineTypeError{Value: t}
	}
}

// Fallback returns the engine tried when t is unavailable.
func (t EngineType) Fallback() EngineType {
	if t == EngineTypePodman {
		return EngineTypeDocker
	}
	return EngineTypePodman
}

// NewEngine returns the engine for t without probing it.
func NewEngine(t EngineType) (Engine, error) {
	switch t {
	case EngineTypeDocker:
		return NewDockerEngine(), nil
	case EngineTypePodman:
		return NewPodmanEngine(), nil
	default:
		return nil, &InvalidEngineTypeError{Value: t}
	}
}

// Available reports whether engine answers its version probe.
func Available(ctx context.Context, inv *process.Invoker, engine Engine) bool {
	quiet := inv.With(process.WithOutput(io.Discard, io.Discard))
	code, err := quiet.Run(ctx, engine.VersionCommand())
	return err == nil && code.IsSuccess()
}

// Select returns the preferred engine when it is available, falling back to
// the other one.
func Select(ctx context.Context, inv *process.Invoker, preferred EngineType) (Engine, error) {
	if err := preferred.Validate(); err != nil {
		return nil, err
	}

	tried := make([]EngineType, 0, 2)
	for _, t := range []EngineType{preferred, preferred.Fallback()} {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine selection cancelled: %w", err)
		}
		engine, _ := NewEngine(t)
		tried = append(tried, t)
		if Available(ctx, inv, engine) {
			if t != preferred {
				slog.Warn("preferred container engine not available, falling back", "preferred", preferred, "engine", t)
			}
			return engine, nil
		}
	}

	return nil, &EngineNotAvailableError{Engine: preferred, Tried: tried}
}
