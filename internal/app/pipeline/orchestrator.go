// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andonyns/Data-Management-Service/internal/bootstrap"
	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/internal/issue"
	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/registry"
	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/internal/tasks"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

type (
	// RegistryFactory builds the command registry for one run. The invoker
	// already carries the run's timeout and tool aliases.
	RegistryFactory func(inv *process.Invoker, p params.Parameters) (*registry.Registry, error)

	// ToolProvisioner makes the local-build package manager available.
	ToolProvisioner interface {
		Plan() []string
		Ensure(ctx context.Context, dryRun bool) (bootstrap.Result, error)
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)

	// Orchestrator runs build commands. It is safe to reuse across runs but
	// not concurrently, since steps may change the working directory.
	Orchestrator struct {
		cfg           *config.Config
		baseDir       types.FilesystemPath
		invoker       *process.Invoker
		newRegistry   RegistryFactory
		provisioner   ToolProvisioner
		executorOpts  []step.ExecutorOption
		toolchainOpts []tasks.ToolchainOption
	}

	// Outcome is what a run went through and produced.
	Outcome struct {
		// State is the final state, Done or Failed.
		State State
		// Transitions lists every state entered, in order.
		Transitions []State
		// Params is the resolved parameter set; zero if parsing failed.
		Params params.Parameters
		// Result is the step executor's report; zero before Executing.
		Result step.RunResult
		// Bootstrap is set when the run provisioned local-build tools.
		Bootstrap *bootstrap.Result
		// BootstrapPlan describes the provisioning a dry run skipped.
		BootstrapPlan []string
	}
)

// WithBaseDir sets the repository root relative config paths resolve against.
func WithBaseDir(dir types.FilesystemPath) Option {
	return func(o *Orchestrator) { o.baseDir = dir }
}

// WithInvoker sets the process invoker the steps launch tools through.
func WithInvoker(inv *process.Invoker) Option {
	return func(o *Orchestrator) { o.invoker = inv }
}

// WithRegistryFactory replaces the build command registry.
func WithRegistryFactory(fn RegistryFactory) Option {
	return func(o *Orchestrator) { o.newRegistry = fn }
}

// WithToolProvisioner replaces the NuGet CLI bootstrap used in local-build mode.
func WithToolProvisioner(p ToolProvisioner) Option {
	return func(o *Orchestrator) { o.provisioner = p }
}

// WithExecutorOptions adds options to every step executor the orchestrator
// creates. Dry-run is always set from the parameters.
func WithExecutorOptions(opts ...step.ExecutorOption) Option {
	return func(o *Orchestrator) { o.executorOpts = append(o.executorOpts, opts...) }
}

// WithToolchainOptions adds options to the default toolchain.
func WithToolchainOptions(opts ...tasks.ToolchainOption) Option {
	return func(o *Orchestrator) { o.toolchainOpts = append(o.toolchainOpts, opts...) }
}

// New creates an Orchestrator for cfg. A nil cfg means the built-in defaults.
func New(cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.invoker == nil {
		o.invoker = process.New()
	}
	if o.newRegistry == nil {
		o.newRegistry = o.defaultRegistry
	}
	return o
}

func (o *Orchestrator) defaultRegistry(inv *process.Invoker, p params.Parameters) (*registry.Registry, error) {
	opts := append([]tasks.ToolchainOption{tasks.WithBaseDir(o.baseDir)}, o.toolchainOpts...)
	return tasks.NewRegistry(tasks.NewToolchain(inv, o.cfg, p, opts...))
}

// Commands returns the commands the registry defines, for listing. The
// registry is built with default parameters.
func (o *Orchestrator) Commands() (*registry.Registry, error) {
	p, err := params.Parse(o.withConfigDefaults(params.RawParameters{}))
	if err != nil {
		return nil, err
	}
	return o.newRegistry(o.invoker, p)
}

// Run executes one invocation. The returned error is nil only when the run
// reached Done; it carries an issue catalog entry (see IssueFor) and maps to
// an exit code through ExitCodeFor. The Outcome is always populated with the
// states the run went through.
func (o *Orchestrator) Run(ctx context.Context, raw params.RawParameters) (Outcome, error) {
	out := Outcome{}
	out.enter(ParsingArgs)

	p, err := params.Parse(o.withConfigDefaults(raw))
	if err != nil {
		return out.fail(issue.NewErrorContext().
			WithOperation("parse parameters").
			WithIssue(issue.InvalidParameterId).
			WithSuggestion("Run 'dmsbuild run --help' for the accepted values").
			Wrap(err).
			BuildError())
	}
	out.Params = p
	out.enter(Validating)

	inv, err := o.validate(ctx, &out)
	if err != nil {
		return out.fail(err)
	}
	out.enter(Resolving)

	reg, err := o.newRegistry(inv, p)
	if err != nil {
		return out.fail(fmt.Errorf("build command registry: %w", err))
	}
	steps, err := reg.Lookup(p.Command)
	if err != nil {
		return out.fail(issue.NewErrorContext().
			WithOperation("resolve command").
			WithResource(p.Command.String()).
			WithIssue(issue.UnknownCommandId).
			WithSuggestion("Run 'dmsbuild list' to see the available commands").
			Wrap(err).
			BuildError())
	}
	out.enter(Executing)

	execOpts := append(append([]step.ExecutorOption{}, o.executorOpts...), step.WithDryRun(p.DryRun))
	out.Result = step.NewExecutor(execOpts...).Execute(ctx, p.Command.String(), steps)
	if out.Result.Err != nil {
		return out.fail(runError(out.Result))
	}

	out.enter(Done)
	slog.Debug("run finished", "command", p.Command, "dry_run", p.DryRun, "duration", out.Result.Duration)
	return out, nil
}

// withConfigDefaults fills options the user left unset from the
// configuration, so flags override config and config overrides built-ins.
func (o *Orchestrator) withConfigDefaults(raw params.RawParameters) params.RawParameters {
	if raw.Configuration == "" {
		raw.Configuration = o.cfg.Build.Configuration
	}
	if raw.Version == "" {
		raw.Version = o.cfg.Build.Version
	}
	if raw.FeedURL == "" {
		raw.FeedURL = o.cfg.Build.NuGetFeed
	}
	if raw.Timeout == 0 {
		raw.Timeout = o.cfg.Build.Timeout
	}
	return raw
}

// validate checks the configuration and, for local builds, provisions the
// NuGet CLI. It returns the invoker the steps should use.
func (o *Orchestrator) validate(ctx context.Context, out *Outcome) (*process.Invoker, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Run 'dmsbuild config show' to inspect the effective configuration").
			Wrap(err).
			BuildError()
	}

	inv := o.invoker
	if out.Params.Timeout > 0 {
		inv = inv.With(process.WithTimeout(out.Params.Timeout))
	}
	if !out.Params.LocalBuild {
		return inv, nil
	}

	prov, err := o.toolProvisioner()
	if err != nil {
		return nil, bootstrapError(o.cfg, err)
	}
	res, err := prov.Ensure(ctx, out.Params.DryRun)
	if err != nil {
		return nil, bootstrapError(o.cfg, err)
	}
	out.Bootstrap = &res
	if res.Action == bootstrap.ActionWouldDownload {
		out.BootstrapPlan = prov.Plan()
	}
	slog.Info("local build tool", "tool", tasks.NuGetTool, "path", res.Path, "action", res.Action)
	return inv.With(process.WithAlias(tasks.NuGetTool, res.Path)), nil
}

func (o *Orchestrator) toolProvisioner() (ToolProvisioner, error) {
	if o.provisioner != nil {
		return o.provisioner, nil
	}
	b, err := bootstrap.New(bootstrap.Options{
		URL:      o.cfg.Bootstrap.NuGetURL,
		ToolsDir: o.cfg.Bootstrap.ToolsDir.ResolveAgainst(o.baseDir),
		Attempts: o.cfg.Bootstrap.DownloadAttempts,
	})
	if err != nil {
		return nil, err
	}
	o.provisioner = b
	return b, nil
}

func bootstrapError(cfg *config.Config, err error) error {
	return issue.NewErrorContext().
		WithOperation("bootstrap the NuGet CLI").
		WithResource(cfg.Bootstrap.NuGetURL).
		WithIssue(issue.BootstrapFailedId).
		WithSuggestions(
			"Check network access to the download URL",
			fmt.Sprintf("Or place the tool in %s yourself", cfg.Bootstrap.ToolsDir),
		).
		Wrap(err).
		BuildError()
}

// runError attaches the catalog entry matching the cause of a failed run.
func runError(run step.RunResult) error {
	id, _ := IssueFor(run.Err)
	ec := issue.NewErrorContext().
		WithOperation("run " + run.Command).
		WithIssue(id).
		Wrap(run.Err)

	var failure *step.Failure
	if errors.As(run.Err, &failure) {
		ec = ec.WithResource(failure.Step.String())
	}
	return ec.BuildError()
}

func (out *Outcome) enter(s State) {
	out.State = s
	out.Transitions = append(out.Transitions, s)
}

func (out *Outcome) fail(err error) (Outcome, error) {
	out.enter(Failed)
	slog.Debug("run failed", "error", err)
	return *out, err
}
