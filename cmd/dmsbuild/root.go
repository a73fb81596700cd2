// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dmsbuild.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the dmsbuild command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Build, test and package the Data Management Service",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - build tasks for the Data Management Service") + `

dmsbuild runs named build commands (Build, UnitTest, DockerBuild, ...) as
ordered steps that drive dotnet, the NuGet CLI and docker or podman. The
first failing step stops the run.

` + SubtitleStyle.Render("Examples:") + `
  dmsbuild run                         Clean, restore and build (Debug)
  dmsbuild run BuildAndPublish -c Release --version 1.2.0
  dmsbuild run UnitTest --dry-run      Show what would run
  dmsbuild list                        List commands and their steps
  dmsbuild config show                 Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(app.stderr, app.verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default ./"+config.ProjectConfigFile+", then the user config dir)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// configureLogging installs a charm logger as the slog default. Library
// packages log through slog, so this is the single place output is styled.
func configureLogging(w io.Writer, verbose bool) {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	slog.SetDefault(slog.New(logger))
}

// Execute runs the CLI and exits with the code the run mapped to.
// This is called by main.main().
func Execute() {
	os.Exit(Run())
}

// Run executes the CLI against the process arguments and returns the exit
// code instead of exiting.
func Run() int {
	app := NewApp(Dependencies{})
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	return int(exitCodeOf(err))
}

// errorHandler leaves errors the commands already rendered alone and hands
// the rest (cobra flag and argument errors) to fang.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// exitCodeOf maps an Execute error to the process exit code. Errors that
// carry no ExitError come from cobra flag or argument parsing.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}
