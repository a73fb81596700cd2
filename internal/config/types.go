// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

const (
	// ContainerEngineDocker uses Docker as the container engine.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container engine.
	ContainerEnginePodman ContainerEngine = "podman"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
	// ColorSchemeNone renders help text without colors.
	ColorSchemeNone ColorScheme = "none"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container engine builds and runs images.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It collects field-level validation errors from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Project describes the solution layout and package metadata.
		Project ProjectConfig `json:"project" mapstructure:"project"`
		// Build configures the dotnet toolchain steps.
		Build BuildConfig `json:"build" mapstructure:"build"`
		// Test configures test assembly discovery.
		Test TestConfig `json:"test" mapstructure:"test"`
		// Container configures image build and run.
		Container ContainerConfig `json:"container" mapstructure:"container"`
		// Bootstrap configures the local-build NuGet CLI download.
		Bootstrap BootstrapConfig `json:"bootstrap" mapstructure:"bootstrap"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ProjectConfig describes where the solution lives and how it is labelled.
	ProjectConfig struct {
		SolutionRoot    types.FilesystemPath `json:"solution_root" mapstructure:"solution_root"`
		Solution        string               `json:"solution" mapstructure:"solution"`
		ApplicationRoot types.FilesystemPath `json:"application_root" mapstructure:"application_root"`
		APIProject      string               `json:"api_project" mapstructure:"api_project"`
		PackageName     string               `json:"package_name" mapstructure:"package_name"`
		TestResults     types.FilesystemPath `json:"test_results" mapstructure:"test_results"`
		Product         string               `json:"product" mapstructure:"product"`
		Maintainers     string               `json:"maintainers" mapstructure:"maintainers"`
	}

	// BuildConfig holds defaults for the run parameters and the dotnet tool.
	BuildConfig struct {
		Version       string `json:"version" mapstructure:"version"`
		Configuration string `json:"configuration" mapstructure:"configuration"`
		NuGetFeed     string `json:"nuget_feed" mapstructure:"nuget_feed"`
		// Dotnet is the dotnet executable name or path.
		Dotnet string `json:"dotnet" mapstructure:"dotnet"`
		// ExtraArgs are appended to dotnet build, in shell word syntax.
		ExtraArgs string `json:"extra_args" mapstructure:"extra_args"`
		// Timeout bounds each external process. Zero disables it.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// TestConfig selects test assemblies.
	TestConfig struct {
		// UnitFilter and E2EFilter are file globs matched against assembly names.
		UnitFilter string `json:"unit_filter" mapstructure:"unit_filter"`
		E2EFilter  string `json:"e2e_filter" mapstructure:"e2e_filter"`
		ExtraArgs  string `json:"extra_args" mapstructure:"extra_args"`
	}

	// ContainerConfig configures image build and run.
	ContainerConfig struct {
		Engine       ContainerEngine      `json:"engine" mapstructure:"engine"`
		Namespace    string               `json:"namespace" mapstructure:"namespace"`
		ContextDir   types.FilesystemPath `json:"context_dir" mapstructure:"context_dir"`
		Dockerfile   string               `json:"dockerfile" mapstructure:"dockerfile"`
		RunPorts     []string             `json:"run_ports" mapstructure:"run_ports"`
		EnvFile      string               `json:"env_file" mapstructure:"env_file"`
		Name         string               `json:"name" mapstructure:"name"`
		Detach       bool                 `json:"detach" mapstructure:"detach"`
		ExtraRunArgs string               `json:"extra_run_args" mapstructure:"extra_run_args"`
	}

	// BootstrapConfig configures the local-build NuGet CLI download.
	BootstrapConfig struct {
		NuGetURL         string               `json:"nuget_url" mapstructure:"nuget_url"`
		ToolsDir         types.FilesystemPath `json:"tools_dir" mapstructure:"tools_dir"`
		DownloadAttempts int                  `json:"download_attempts" mapstructure:"download_attempts"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme ("auto", "dark", "light", "none").
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in configuration for the Data Management
// Service repository layout.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			SolutionRoot:    "src",
			Solution:        "EdFi.DataManagementService.sln",
			ApplicationRoot: "src/frontend",
			APIProject:      "EdFi.DataManagementService.Api",
			PackageName:     "edfi-data-management-service",
			TestResults:     "TestResults",
			Product:         "Ed-Fi Data Management Service",
			Maintainers:     "Ed-Fi Alliance, LLC and contributors",
		},
		Build: BuildConfig{
			Version:       "0.1",
			Configuration: "Debug",
			NuGetFeed:     "https://pkgs.dev.azure.com/ed-fi-alliance/Ed-Fi-Alliance-OSS/_packaging/EdFi/nuget/v3/index.json",
			Dotnet:        "dotnet",
		},
		Test: TestConfig{
			UnitFilter: "*.Tests.Unit",
			E2EFilter:  "*.Tests.E2E",
		},
		Container: ContainerConfig{
			Engine:     ContainerEngineDocker,
			Namespace:  "local",
			ContextDir: "src",
			Dockerfile: "Dockerfile",
			RunPorts:   []string{"8080:8080"},
			Detach:     false,
		},
		Bootstrap: BootstrapConfig{
			NuGetURL:         "https://dist.nuget.org/win-x86-commandline/latest/nuget.exe",
			ToolsDir:         ".tools",
			DownloadAttempts: 3,
		},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Namespace returns the image namespace as a ProjectNamespace. Call Validate
// first; an invalid namespace yields the zero value.
func (c *Config) Namespace() types.ProjectNamespace {
	ns, err := types.NewProjectNamespace(c.Container.Namespace)
	if err != nil {
		return types.ProjectNamespace{}
	}
	return ns
}

// IsValid returns whether the Config is valid, collecting every field error.
// It checks the invariants the CUE schema cannot see, since the same checks
// apply to defaults and flag overrides.
func (c Config) IsValid() (bool, []error) {
	var errs []error

	for name, p := range map[string]types.FilesystemPath{
		"project.solution_root":    c.Project.SolutionRoot,
		"project.application_root": c.Project.ApplicationRoot,
		"project.test_results":     c.Project.TestResults,
		"container.context_dir":    c.Container.ContextDir,
		"bootstrap.tools_dir":      c.Bootstrap.ToolsDir,
	} {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	for name, s := range map[string]string{
		"project.solution":     c.Project.Solution,
		"project.api_project":  c.Project.APIProject,
		"project.package_name": c.Project.PackageName,
		"build.dotnet":         c.Build.Dotnet,
		"test.unit_filter":     c.Test.UnitFilter,
		"test.e2e_filter":      c.Test.E2EFilter,
		"container.dockerfile": c.Container.Dockerfile,
	} {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("%s: must not be empty", name))
		}
	}

	if _, err := types.NewProjectNamespace(c.Container.Namespace); err != nil {
		errs = append(errs, fmt.Errorf("container.namespace: %w", err))
	}
	if ok, fieldErrs := c.Container.Engine.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Build.Timeout < 0 {
		errs = append(errs, fmt.Errorf("build.timeout: must not be negative, got %s", c.Build.Timeout))
	}
	if c.Bootstrap.DownloadAttempts < 1 {
		errs = append(errs, fmt.Errorf("bootstrap.download_attempts: must be at least 1, got %d", c.Bootstrap.DownloadAttempts))
	}

	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Validate returns an *InvalidConfigError if the Config is not valid.
func (c Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	slices.Sort(msgs)
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is a known engine.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Alternative returns the other supported engine.
func (ce ContainerEngine) Alternative() ContainerEngine {
	if ce == ContainerEnginePodman {
		return ContainerEngineDocker
	}
	return ContainerEnginePodman
}

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is a known scheme.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, ColorSchemeNone:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light, none)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }
