// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"
	"fmt"
	"time"

	"mvdan.cc/sh/v3/shell"

	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/internal/container"
	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/process"
	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/internal/vcs"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

type (
	// EngineSelector picks the container engine for the image steps.
	EngineSelector func(ctx context.Context, inv *process.Invoker, preferred container.EngineType) (container.Engine, error)

	// CommitReader returns the commit the working copy is at.
	CommitReader func(dir types.FilesystemPath) (vcs.Commit, error)

	// ToolchainOption configures a Toolchain.
	ToolchainOption func(*Toolchain)

	// Toolchain binds the run parameters and configuration to the tools the
	// steps launch.
	Toolchain struct {
		invoker      *process.Invoker
		cfg          *config.Config
		params       params.Parameters
		baseDir      types.FilesystemPath
		now          func() time.Time
		headCommit   CommitReader
		selectEngine EngineSelector
	}

	// toolStep is a step whose body and dry-run plan are closures.
	toolStep struct {
		name        step.Name
		description string
		plan        func() []string
		run         func(ctx context.Context) error
	}
)

// WithBaseDir sets the repository root that relative config paths resolve
// against. Empty means the working directory.
func WithBaseDir(dir types.FilesystemPath) ToolchainOption {
	return func(t *Toolchain) { t.baseDir = dir }
}

// WithNow sets the clock used for the copyright year.
func WithNow(now func() time.Time) ToolchainOption {
	return func(t *Toolchain) { t.now = now }
}

// WithCommitReader replaces the git lookup used for InformationalVersion.
func WithCommitReader(fn CommitReader) ToolchainOption {
	return func(t *Toolchain) { t.headCommit = fn }
}

// WithEngineSelector replaces container engine selection.
func WithEngineSelector(fn EngineSelector) ToolchainOption {
	return func(t *Toolchain) { t.selectEngine = fn }
}

// NewToolchain creates a Toolchain.
func NewToolchain(inv *process.Invoker, cfg *config.Config, p params.Parameters, opts ...ToolchainOption) *Toolchain {
	t := &Toolchain{
		invoker:      inv,
		cfg:          cfg,
		params:       p,
		now:          time.Now,
		headCommit:   vcs.HeadCommit,
		selectEngine: container.Select,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Toolchain) path(p types.FilesystemPath) types.FilesystemPath {
	return p.ResolveAgainst(t.baseDir)
}

func (t *Toolchain) solutionRoot() types.FilesystemPath { return t.path(t.cfg.Project.SolutionRoot) }

func (t *Toolchain) solutionFile() types.FilesystemPath {
	return t.solutionRoot().Join(t.cfg.Project.Solution)
}

func (t *Toolchain) apiProjectDir() types.FilesystemPath {
	return t.path(t.cfg.Project.ApplicationRoot).Join(t.cfg.Project.APIProject)
}

func (t *Toolchain) configuration() string { return t.params.Configuration.String() }

// run launches c and turns a non-zero exit into an error carrying the code.
func (t *Toolchain) run(ctx context.Context, c process.Command) error {
	return t.invoker.RunChecked(ctx, c)
}

// splitArgs splits a config string into words using shell quoting rules.
// Variable references expand from the environment.
func splitArgs(field, s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	words, err := shell.Fields(s, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return words, nil
}

func newToolStep(name step.Name, description string, plan func() []string, run func(ctx context.Context) error) *toolStep {
	if err := name.Validate(); err != nil {
		panic(err)
	}
	return &toolStep{name: name, description: description, plan: plan, run: run}
}

func (s *toolStep) Name() step.Name               { return s.name }
func (s *toolStep) Description() string           { return s.description }
func (s *toolStep) Run(ctx context.Context) error { return s.run(ctx) }
func (s *toolStep) Plan() []string                { return s.plan() }

// commandPlan renders commands for a dry-run plan.
func commandPlan(cmds ...process.Command) []string {
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		line := c.String()
		if c.Dir != "" {
			line += "  (in " + c.Dir.String() + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
