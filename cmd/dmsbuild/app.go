// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/andonyns/Data-Management-Service/internal/app/pipeline"
	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/vcs"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and
	// delegates through it.
	App struct {
		Config     config.Provider
		baseDir    types.FilesystemPath
		configDir  types.FilesystemPath
		invoker    *process.Invoker
		pipeline   []pipeline.Option
		headCommit func(types.FilesystemPath) (vcs.Commit, error)
		stdout     io.Writer
		stderr     io.Writer

		// Set by persistent flags before any RunE.
		verbose    bool
		configPath string

		// Set by loadConfig.
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// BaseDir is the repository root. Empty means the working directory.
		BaseDir types.FilesystemPath
		// ConfigDir overrides the user config directory.
		ConfigDir types.FilesystemPath
		// Invoker launches the build tools. Its output writers default to
		// Stdout and Stderr.
		Invoker *process.Invoker
		// Pipeline adds orchestrator options, for tests.
		Pipeline   []pipeline.Option
		HeadCommit func(types.FilesystemPath) (vcs.Commit, error)
		Stdout     io.Writer
		Stderr     io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Invoker == nil {
		deps.Invoker = process.New(process.WithOutput(deps.Stdout, deps.Stderr))
	}
	if deps.HeadCommit == nil {
		deps.HeadCommit = vcs.HeadCommit
	}

	return &App{
		Config:     deps.Config,
		baseDir:    deps.BaseDir,
		configDir:  deps.ConfigDir,
		invoker:    deps.Invoker,
		pipeline:   deps.Pipeline,
		headCommit: deps.HeadCommit,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// loadOptions returns the config lookup inputs for this invocation.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.configPath),
		ConfigDirPath:  a.configDir,
		BaseDir:        a.baseDir,
	}
}

// loadConfig loads the effective configuration, records ui.color_scheme and
// applies ui.verbose when the flag was not given.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	a.colorScheme = cfg.UI.ColorScheme
	if cfg.UI.Verbose && !a.verbose {
		a.verbose = true
		configureLogging(a.stderr, true)
	}
	return cfg, nil
}

// orchestrator creates the pipeline for cfg.
func (a *App) orchestrator(cfg *config.Config, opts ...pipeline.Option) *pipeline.Orchestrator {
	base := []pipeline.Option{
		pipeline.WithBaseDir(a.baseDir),
		pipeline.WithInvoker(a.invoker),
	}
	base = append(base, a.pipeline...)
	return pipeline.New(cfg, append(base, opts...)...)
}
