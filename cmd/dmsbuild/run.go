// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andonyns/Data-Management-Service/internal/app/pipeline"
	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/registry"
	"github.com/andonyns/Data-Management-Service/internal/report"
	"github.com/andonyns/Data-Management-Service/internal/step"
)

// runFlags holds the `dmsbuild run` flag values. Empty strings and a zero
// timeout mean "use the configuration".
type runFlags struct {
	command       string
	configuration string
	version       string
	feedURL       string
	dryRun        bool
	localBuild    bool
	timeout       time.Duration
	reportPath    string
	metricsPath   string
}

func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run [command]",
		Short: "Run a build command",
		Long: `Run a build command. The command defaults to Build.

Commands: ` + commandList() + `

Flags override the configuration file; the configuration overrides the
built-in defaults.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: commandNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if flags.command != "" && flags.command != args[0] {
					return fmt.Errorf("command given twice: %q and --command %q", args[0], flags.command)
				}
				flags.command = args[0]
			}
			return runBuild(cmd.Context(), app, flags)
		},
	}

	f := runCmd.Flags()
	f.StringVar(&flags.command, "command", "", "command to run (default Build)")
	f.StringVarP(&flags.configuration, "configuration", "c", "", "build configuration: Debug or Release (default from config, Debug)")
	f.StringVar(&flags.version, "version", "", "version to stamp and tag (default from config, "+params.DefaultVersion+")")
	f.StringVar(&flags.feedURL, "feed-url", "", "NuGet feed for restore (default from config)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "report the steps that would run without running them")
	f.BoolVar(&flags.localBuild, "local-build", false, "download the NuGet CLI and restore with it")
	f.DurationVar(&flags.timeout, "timeout", 0, "kill any tool that runs longer than this (default from config, none)")
	f.StringVar(&flags.reportPath, "report", "", "write a TOML run report to this file")
	f.StringVar(&flags.metricsPath, "metrics", "", "write Prometheus textfile metrics to this file")

	return runCmd
}

// runBuild loads configuration, runs the pipeline and renders the outcome.
// Failures come back as *ExitError wrapping a *ServiceError that was
// already rendered to stderr.
func runBuild(ctx context.Context, app *App, flags runFlags) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(err)
	}

	progress := newProgressPrinter(app.stdout)
	o := app.orchestrator(cfg, pipeline.WithExecutorOptions(step.WithObserver(progress)))

	out, runErr := o.Run(ctx, params.RawParameters{
		Command:       flags.command,
		Configuration: flags.configuration,
		Version:       flags.version,
		DryRun:        flags.dryRun,
		FeedURL:       flags.feedURL,
		LocalBuild:    flags.localBuild,
		Timeout:       flags.timeout,
	})

	if out.Bootstrap != nil {
		renderBootstrap(app.stdout, out)
	}
	if len(out.Result.Steps) > 0 {
		if out.Result.DryRun {
			renderPlan(app.stdout, out.Result)
		}
		renderSummary(app.stdout, out.Result)
		if err := writeArtifacts(app, flags, out); err != nil {
			slog.Warn("writing run artifacts failed", "error", err)
		}
	}

	if runErr != nil {
		return app.fail(runErr)
	}
	return nil
}

// fail renders err on stderr and wraps it with its exit code.
func (a *App) fail(err error) error {
	id, _ := pipeline.IssueFor(err)
	svcErr := newServiceError(err, id, styledError(err, a.verbose))
	renderServiceError(a.stderr, svcErr, a.verbose, glamourStyle(a.colorScheme))
	return &ExitError{Code: pipeline.ExitCodeFor(err), Err: svcErr}
}

// writeArtifacts writes the report and metrics files requested by flags.
func writeArtifacts(app *App, flags runFlags, out pipeline.Outcome) error {
	var errs []error
	if flags.reportPath != "" {
		meta := report.Metadata{
			Configuration: out.Params.Configuration.String(),
			Version:       out.Params.Version.String(),
		}
		if commit, err := app.headCommit(app.baseDir); err == nil {
			meta.Commit = commit.Hash
		}
		if err := report.WriteTOML(flags.reportPath, report.New(out.Result, meta)); err != nil {
			errs = append(errs, err)
		}
	}
	if flags.metricsPath != "" {
		if err := report.WriteMetrics(flags.metricsPath, out.Result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func commandNames() []string {
	names := make([]string, 0, len(registry.AllCommands()))
	for _, c := range registry.AllCommands() {
		names = append(names, c.String())
	}
	return names
}

func commandList() string { return strings.Join(commandNames(), ", ") }
