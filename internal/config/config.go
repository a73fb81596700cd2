// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/andonyns/Data-Management-Service/internal/issue"
	"github.com/andonyns/Data-Management-Service/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "dmsbuild"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectConfigFile is the per-repository config file, looked up in the
	// base directory.
	ProjectConfigFile = AppName + "." + ConfigFileExt
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the dmsbuild configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserConfigPath returns the path of the user config file.
func UserConfigPath(opts LoadOptions) (string, error) {
	dir := string(opts.ConfigDirPath)
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// ResolvePath returns the config file Load would read, or "" when none exists
// and defaults apply. Lookup order: the explicit file, the project file in the
// base directory, then the user config file.
func ResolvePath(opts LoadOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return path, nil
	}

	projectPath := ProjectConfigFile
	if opts.BaseDir != "" {
		projectPath = filepath.Join(string(opts.BaseDir), ProjectConfigFile)
	}
	if fileExists(projectPath) {
		return projectPath, nil
	}

	userPath, err := UserConfigPath(opts)
	if err != nil {
		return "", err
	}
	if fileExists(userPath) {
		return userPath, nil
	}

	return "", nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath, err := ResolvePath(opts)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(string(opts.ConfigFilePath)).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'dmsbuild config show' to see the default configuration").
			Wrap(err).
			BuildError()
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project.solution_root", d.Project.SolutionRoot)
	v.SetDefault("project.solution", d.Project.Solution)
	v.SetDefault("project.application_root", d.Project.ApplicationRoot)
	v.SetDefault("project.api_project", d.Project.APIProject)
	v.SetDefault("project.package_name", d.Project.PackageName)
	v.SetDefault("project.test_results", d.Project.TestResults)
	v.SetDefault("project.product", d.Project.Product)
	v.SetDefault("project.maintainers", d.Project.Maintainers)
	v.SetDefault("build.version", d.Build.Version)
	v.SetDefault("build.configuration", d.Build.Configuration)
	v.SetDefault("build.nuget_feed", d.Build.NuGetFeed)
	v.SetDefault("build.dotnet", d.Build.Dotnet)
	v.SetDefault("build.extra_args", d.Build.ExtraArgs)
	v.SetDefault("build.timeout", d.Build.Timeout)
	v.SetDefault("test.unit_filter", d.Test.UnitFilter)
	v.SetDefault("test.e2e_filter", d.Test.E2EFilter)
	v.SetDefault("test.extra_args", d.Test.ExtraArgs)
	v.SetDefault("container.engine", d.Container.Engine)
	v.SetDefault("container.namespace", d.Container.Namespace)
	v.SetDefault("container.context_dir", d.Container.ContextDir)
	v.SetDefault("container.dockerfile", d.Container.Dockerfile)
	v.SetDefault("container.run_ports", d.Container.RunPorts)
	v.SetDefault("container.env_file", d.Container.EnvFile)
	v.SetDefault("container.name", d.Container.Name)
	v.SetDefault("container.detach", d.Container.Detach)
	v.SetDefault("container.extra_run_args", d.Container.ExtraRunArgs)
	v.SetDefault("bootstrap.nuget_url", d.Bootstrap.NuGetURL)
	v.SetDefault("bootstrap.tools_dir", d.Bootstrap.ToolsDir)
	v.SetDefault("bootstrap.download_attempts", d.Bootstrap.DownloadAttempts)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFile writes cfg as CUE to path, creating parent directories. An
// existing file is only replaced when force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// dmsbuild configuration file\n")
	sb.WriteString("// Omitted fields keep their built-in defaults.\n")

	sb.WriteString("\nproject: {\n")
	fmt.Fprintf(&sb, "\tsolution_root:    %q\n", cfg.Project.SolutionRoot)
	fmt.Fprintf(&sb, "\tsolution:         %q\n", cfg.Project.Solution)
	fmt.Fprintf(&sb, "\tapplication_root: %q\n", cfg.Project.ApplicationRoot)
	fmt.Fprintf(&sb, "\tapi_project:      %q\n", cfg.Project.APIProject)
	fmt.Fprintf(&sb, "\tpackage_name:     %q\n", cfg.Project.PackageName)
	fmt.Fprintf(&sb, "\ttest_results:     %q\n", cfg.Project.TestResults)
	fmt.Fprintf(&sb, "\tproduct:          %q\n", cfg.Project.Product)
	fmt.Fprintf(&sb, "\tmaintainers:      %q\n", cfg.Project.Maintainers)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tversion:       %q\n", cfg.Build.Version)
	fmt.Fprintf(&sb, "\tconfiguration: %q\n", cfg.Build.Configuration)
	fmt.Fprintf(&sb, "\tnuget_feed:    %q\n", cfg.Build.NuGetFeed)
	fmt.Fprintf(&sb, "\tdotnet:        %q\n", cfg.Build.Dotnet)
	if cfg.Build.ExtraArgs != "" {
		fmt.Fprintf(&sb, "\textra_args:    %q\n", cfg.Build.ExtraArgs)
	}
	fmt.Fprintf(&sb, "\ttimeout:       %q\n", formatDuration(cfg.Build.Timeout))
	sb.WriteString("}\n")

	sb.WriteString("\ntest: {\n")
	fmt.Fprintf(&sb, "\tunit_filter: %q\n", cfg.Test.UnitFilter)
	fmt.Fprintf(&sb, "\te2e_filter:  %q\n", cfg.Test.E2EFilter)
	if cfg.Test.ExtraArgs != "" {
		fmt.Fprintf(&sb, "\textra_args:  %q\n", cfg.Test.ExtraArgs)
	}
	sb.WriteString("}\n")

	sb.WriteString("\ncontainer: {\n")
	fmt.Fprintf(&sb, "\tengine:      %q\n", cfg.Container.Engine)
	fmt.Fprintf(&sb, "\tnamespace:   %q\n", cfg.Container.Namespace)
	fmt.Fprintf(&sb, "\tcontext_dir: %q\n", cfg.Container.ContextDir)
	fmt.Fprintf(&sb, "\tdockerfile:  %q\n", cfg.Container.Dockerfile)
	sb.WriteString("\trun_ports: [")
	for i, p := range cfg.Container.RunPorts {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n")
	if cfg.Container.EnvFile != "" {
		fmt.Fprintf(&sb, "\tenv_file: %q\n", cfg.Container.EnvFile)
	}
	if cfg.Container.Name != "" {
		fmt.Fprintf(&sb, "\tname: %q\n", cfg.Container.Name)
	}
	fmt.Fprintf(&sb, "\tdetach: %v\n", cfg.Container.Detach)
	if cfg.Container.ExtraRunArgs != "" {
		fmt.Fprintf(&sb, "\textra_run_args: %q\n", cfg.Container.ExtraRunArgs)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nbootstrap: {\n")
	fmt.Fprintf(&sb, "\tnuget_url:         %q\n", cfg.Bootstrap.NuGetURL)
	fmt.Fprintf(&sb, "\ttools_dir:         %q\n", cfg.Bootstrap.ToolsDir)
	fmt.Fprintf(&sb, "\tdownload_attempts: %d\n", cfg.Bootstrap.DownloadAttempts)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

// formatDuration renders d in a form accepted by the schema and by
// time.ParseDuration.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.String()
}
