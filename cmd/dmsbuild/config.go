// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andonyns/Data-Management-Service/internal/config"
)

// newConfigCommand creates the `dmsbuild config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dmsbuild configuration",
		Long: `Manage dmsbuild configuration.

Configuration is read from the first file found:
  - the --config flag
  - ./` + config.ProjectConfigFile + `
  - Linux: ~/.config/dmsbuild/config.cue
  - macOS: ~/Library/Application Support/dmsbuild/config.cue
  - Windows: %APPDATA%\dmsbuild\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			path, _ := config.ResolvePath(app.loadOptions())
			showConfig(app, cfg, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	var force, project bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.UserConfigPath(app.loadOptions())
			if err != nil {
				return app.fail(err)
			}
			if project {
				path = filepath.Join(string(app.baseDir), config.ProjectConfigFile)
			}
			if err := config.WriteFile(path, config.DefaultConfig(), force); err != nil {
				return app.fail(err)
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&project, "project", false, "write ./"+config.ProjectConfigFile+" instead of the user config")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config, path string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	section := func(name string, kv ...any) {
		fmt.Fprintf(w, "\n%s:\n", keyStyle.Render(name))
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(w, "  %s: %s\n", kv[i], valueStyle.Render(fmt.Sprint(kv[i+1])))
		}
	}

	section("project",
		"solution_root", cfg.Project.SolutionRoot,
		"solution", cfg.Project.Solution,
		"application_root", cfg.Project.ApplicationRoot,
		"api_project", cfg.Project.APIProject,
		"package_name", cfg.Project.PackageName,
		"test_results", cfg.Project.TestResults,
	)
	section("build",
		"version", cfg.Build.Version,
		"configuration", cfg.Build.Configuration,
		"nuget_feed", cfg.Build.NuGetFeed,
		"dotnet", cfg.Build.Dotnet,
		"timeout", cfg.Build.Timeout,
	)
	section("test",
		"unit_filter", cfg.Test.UnitFilter,
		"e2e_filter", cfg.Test.E2EFilter,
	)
	section("container",
		"engine", cfg.Container.Engine,
		"namespace", cfg.Container.Namespace,
		"context_dir", cfg.Container.ContextDir,
		"dockerfile", cfg.Container.Dockerfile,
		"run_ports", cfg.Container.RunPorts,
	)
	section("bootstrap",
		"nuget_url", cfg.Bootstrap.NuGetURL,
		"tools_dir", cfg.Bootstrap.ToolsDir,
		"download_attempts", cfg.Bootstrap.DownloadAttempts,
	)
	section("ui",
		"verbose", cfg.UI.Verbose,
		"color_scheme", cfg.UI.ColorScheme,
	)
}

func showConfigPath(app *App) error {
	opts := app.loadOptions()
	userPath, err := config.UserConfigPath(opts)
	if err != nil {
		return app.fail(err)
	}
	active, err := config.ResolvePath(opts)
	if err != nil {
		return app.fail(err)
	}
	if active == "" {
		active = "(none, using defaults)"
	}

	fmt.Fprintf(app.stdout, "Project config: %s\n", filepath.Join(string(app.baseDir), config.ProjectConfigFile))
	fmt.Fprintf(app.stdout, "User config: %s\n", userPath)
	fmt.Fprintf(app.stdout, "Active: %s\n", active)
	return nil
}
