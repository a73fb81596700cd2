// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

const (
	// PortProtocolTCP is the TCP transport protocol for port mappings.
	PortProtocolTCP PortProtocol = "tcp"
	// PortProtocolUDP is the UDP transport protocol for port mappings.
	PortProtocolUDP PortProtocol = "udp"
)

var (
	// ErrInvalidPortProtocol is the sentinel error wrapped by InvalidPortProtocolError.
	ErrInvalidPortProtocol = errors.New("invalid port protocol")
	// ErrInvalidNetworkPort is the sentinel error wrapped by InvalidNetworkPortError.
	ErrInvalidNetworkPort = errors.New("invalid network port")
	// ErrInvalidPortMapping is the sentinel error wrapped by InvalidPortMappingError.
	ErrInvalidPortMapping = errors.New("invalid port mapping")
	// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
	ErrInvalidImageRef = errors.New("invalid image reference")
)

type (
	// BaseCLIEngine provides the argument construction shared by the Docker
	// and Podman CLIs. Both engines embed it.
	BaseCLIEngine struct {
		name string
	}

	// ImageRef is a "<namespace>/<repository>:<tag>" image reference.
	ImageRef struct {
		Namespace  types.ProjectNamespace
		Repository string
		Tag        string
	}

	// InvalidImageRefError is returned when an ImageRef has missing parts.
	InvalidImageRefError struct {
		Value  ImageRef
		Reason string
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory. The build step runs from
		// inside it, so "." is the usual value.
		ContextDir types.FilesystemPath
		// Dockerfile is the path to the Dockerfile, relative to the working directory.
		Dockerfile string
		// Image is the tag applied to the built image.
		Image ImageRef
		// BuildArgs are build-time variables, emitted in key order.
		BuildArgs map[string]string
		// NoCache disables the build cache.
		NoCache bool
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		Image ImageRef
		// Name is the container name. Empty lets the engine pick one.
		Name string
		// Ports are published in order.
		Ports []PortMapping
		// EnvFile is passed with --env-file when set.
		EnvFile string
		// Remove automatically removes the container after exit.
		Remove bool
		// Detach runs the container in the background.
		Detach bool
		// ExtraArgs are inserted before the image reference.
		ExtraArgs []string
	}

	// PortProtocol represents a network transport protocol for port mappings.
	// The zero value ("") is valid and means "default to tcp".
	PortProtocol string

	// InvalidPortProtocolError is returned when a PortProtocol is not a recognized protocol.
	InvalidPortProtocolError struct {
		Value PortProtocol
	}

	// NetworkPort represents a TCP/UDP port number for container port mappings.
	// A valid port must be greater than zero.
	NetworkPort uint16

	// InvalidNetworkPortError is returned when a NetworkPort value is zero.
	InvalidNetworkPortError struct {
		Value NetworkPort
	}

	// PortMapping represents a port mapping specification.
	PortMapping struct {
		HostPort      NetworkPort
		ContainerPort NetworkPort
		Protocol      PortProtocol
	}

	// InvalidPortMappingError is returned when a PortMapping has one or more invalid fields.
	// It wraps the individual field validation errors for inspection.
	InvalidPortMappingError struct {
		Value     PortMapping
		FieldErrs []error
	}
)

// NewBaseCLIEngine creates a base engine for the named CLI binary.
func NewBaseCLIEngine(name string) *BaseCLIEngine {
	return &BaseCLIEngine{name: name}
}

// Name returns the engine name, which is also the executable name.
func (e *BaseCLIEngine) Name() string { return e.name }

// Command returns an invocation of the engine binary with args.
func (e *BaseCLIEngine) Command(args ...string) process.Command {
	return process.Command{Executable: e.name, Args: args}
}

// BuildArgs constructs arguments for an image build.
//
// Generated command: <binary> build [-f dockerfile] -t image [options] <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Dockerfile != "" {
		args = append(args, "-f", opts.Dockerfile)
	}

	if !opts.Image.IsZero() {
		args = append(args, "-t", opts.Image.String())
	}

	if opts.NoCache {
		args = append(args, "--no-cache")
	}

	for _, k := range slices.Sorted(maps.Keys(opts.BuildArgs)) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildArgs[k]))
	}

	contextDir := string(opts.ContextDir)
	if contextDir == "" {
		contextDir = "."
	}
	return append(args, contextDir)
}

// RunArgs constructs arguments for a container run.
//
// Generated command: <binary> run [options] <image>
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}

	if opts.Detach {
		args = append(args, "-d")
	}

	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}

	for _, p := range opts.Ports {
		args = append(args, "-p", p.String())
	}

	if opts.EnvFile != "" {
		args = append(args, "--env-file", opts.EnvFile)
	}

	args = append(args, opts.ExtraArgs...)
	return append(args, opts.Image.String())
}

// BuildCommand returns the image build invocation.
func (e *BaseCLIEngine) BuildCommand(opts BuildOptions) process.Command {
	return e.Command(e.BuildArgs(opts)...)
}

// RunCommand returns the container run invocation.
func (e *BaseCLIEngine) RunCommand(opts RunOptions) process.Command {
	return e.Command(e.RunArgs(opts)...)
}

// String returns "<namespace>/<repository>:<tag>".
func (r ImageRef) String() string {
	if r.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s/%s:%s", r.Namespace, r.Repository, r.Tag)
}

// IsZero reports whether r is unset.
func (r ImageRef) IsZero() bool {
	return r.Namespace.IsZero() && r.Repository == "" && r.Tag == ""
}

// Validate returns an error if any part of the reference is missing.
func (r ImageRef) Validate() error {
	switch {
	case r.Namespace.IsZero():
		return &InvalidImageRefError{Value: r, Reason: "namespace is required"}
	case strings.TrimSpace(r.Repository) == "":
		return &InvalidImageRefError{Value: r, Reason: "repository is required"}
	case strings.TrimSpace(r.Tag) == "":
		return &InvalidImageRefError{Value: r, Reason: "tag is required"}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q: %s", e.Value.String(), e.Reason)
}

// Unwrap returns ErrInvalidImageRef for errors.Is() compatibility.
func (e *InvalidImageRefError) Unwrap() error { return ErrInvalidImageRef }

// Error implements the error interface.
func (e *InvalidPortProtocolError) Error() string {
	return fmt.Sprintf("invalid port protocol %q (valid: tcp, udp)", e.Value)
}

// Unwrap returns ErrInvalidPortProtocol so callers can use errors.Is for programmatic detection.
func (e *InvalidPortProtocolError) Unwrap() error { return ErrInvalidPortProtocol }

// Validate returns an error if the PortProtocol is not one of the defined protocols.
// The zero value ("") is valid and is treated as "tcp".
func (p PortProtocol) Validate() error {
	switch p {
	case PortProtocolTCP, PortProtocolUDP, "":
		return nil
	default:
		return &InvalidPortProtocolError{Value: p}
	}
}

// String returns the string representation of the PortProtocol.
func (p PortProtocol) String() string { return string(p) }

// String returns the string representation of the NetworkPort.
func (p NetworkPort) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the NetworkPort is zero.
func (p NetworkPort) Validate() error {
	if p == 0 {
		return &InvalidNetworkPortError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidNetworkPortError.
func (e *InvalidNetworkPortError) Error() string {
	return fmt.Sprintf("invalid network port %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidNetworkPort for errors.Is() compatibility.
func (e *InvalidNetworkPortError) Unwrap() error { return ErrInvalidNetworkPort }

// Error implements the error interface for InvalidPortMappingError.
func (e *InvalidPortMappingError) Error() string {
	return fmt.Sprintf("invalid port mapping %d:%d/%s: %d field error(s)",
		e.Value.HostPort, e.Value.ContainerPort, e.Value.Protocol, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPortMapping for errors.Is() compatibility.
func (e *InvalidPortMappingError) Unwrap() error { return ErrInvalidPortMapping }

// Validate returns an error if any typed field of the PortMapping is invalid.
func (p PortMapping) Validate() error {
	var errs []error
	if err := p.HostPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Protocol.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPortMappingError{Value: p, FieldErrs: errs}
	}
	return nil
}

// String returns the mapping in "host:container[/protocol]" form; tcp is implied.
func (p PortMapping) String() string {
	result := fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
	if p.Protocol != "" && p.Protocol != PortProtocolTCP {
		result += "/" + string(p.Protocol)
	}
	return result
}

// ParsePortMapping parses a port mapping string in "hostPort:containerPort[/protocol]"
// format. After parsing, the result is validated via PortMapping.Validate().
func ParsePortMapping(portStr string) (PortMapping, error) {
	mapping := PortMapping{}

	parts := strings.SplitN(portStr, ":", 2)
	if len(parts) != 2 {
		return mapping, fmt.Errorf("invalid port mapping format %q: must contain ':' separator", portStr)
	}

	hostPort, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid host port %q: %w", parts[0], err)
	}
	mapping.HostPort = NetworkPort(hostPort)

	containerParts := strings.SplitN(parts[1], "/", 2)
	containerPort, err := strconv.ParseUint(containerParts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid container port %q: %w", containerParts[0], err)
	}
	mapping.ContainerPort = NetworkPort(containerPort)

	if len(containerParts) == 2 {
		mapping.Protocol = PortProtocol(containerParts[1])
	}

	if err := mapping.Validate(); err != nil {
		return mapping, err
	}
	return mapping, nil
}

// ParsePortMappings parses every entry, stopping at the first invalid one.
func ParsePortMappings(specs []string) ([]PortMapping, error) {
	mappings := make([]PortMapping, 0, len(specs))
	for _, s := range specs {
		m, err := ParsePortMapping(s)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}
