// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andonyns/Data-Management-Service/internal/config"
	"github.com/andonyns/Data-Management-Service/internal/testutil"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

func TestConfigInit(t *testing.T) {
	c := newCLI(t)
	projectFile := filepath.Join(c.base, config.ProjectConfigFile)

	if err := c.run("config", "init", "--project"); err != nil {
		t.Fatalf("config init error = %v\nstderr: %s", err, c.stderr.String())
	}
	if !strings.Contains(c.stdout.String(), projectFile) {
		t.Errorf("output should name %s:\n%s", projectFile, c.stdout.String())
	}
	if got := testutil.MustReadFile(t, projectFile); !strings.Contains(got, "container: {") {
		t.Errorf("written config missing container section:\n%s", got)
	}

	// A second init refuses to overwrite without --force.
	c.stdout.Reset()
	err := c.run("config", "init", "--project")
	if got := exitCodeOf(err); got == types.ExitSuccess {
		t.Fatal("second init should fail without --force")
	}
	if err := c.run("config", "init", "--project", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestConfigPathAndShow(t *testing.T) {
	c := newCLI(t)

	if err := c.run("config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(c.stdout.String(), "Active: (none, using defaults)") {
		t.Errorf("config path without files:\n%s", c.stdout.String())
	}

	projectFile := filepath.Join(c.base, config.ProjectConfigFile)
	testutil.MustWriteFile(t, projectFile, "build: {\n\tconfiguration: \"Release\"\n}\n")

	c.stdout.Reset()
	if err := c.run("config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(c.stdout.String(), "Active: "+projectFile) {
		t.Errorf("config path should report the project file:\n%s", c.stdout.String())
	}

	c.stdout.Reset()
	if err := c.run("config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	out := c.stdout.String()
	for _, want := range []string{"Current Configuration", projectFile, "configuration", "Release", "namespace"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigDump(t *testing.T) {
	c := newCLI(t)
	testutil.MustWriteFile(t, filepath.Join(c.base, config.ProjectConfigFile), "container: {\n\tengine: \"podman\"\n}\n")

	if err := c.run("config", "dump"); err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	out := c.stdout.String()
	if !strings.Contains(out, "// dmsbuild configuration file") || !strings.Contains(out, `"podman"`) {
		t.Errorf("config dump should reflect the project file:\n%s", out)
	}
}

func TestConfig_BrokenFileFailsRun(t *testing.T) {
	c := newCLI(t)
	testutil.MustWriteFile(t, filepath.Join(c.base, config.ProjectConfigFile), "build: {\n\tconfiguration: \n")

	err := c.run("run", "Clean")
	if got := exitCodeOf(err); got != types.ExitEnvironment {
		t.Fatalf("exit code = %d, want %d (err = %v)", got, types.ExitEnvironment, err)
	}
	if n := len(c.rec.Invocations()); n != 0 {
		t.Errorf("broken config launched %d processes", n)
	}
}

func TestConfig_ColorSchemeSelectsHelpStyle(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	c := newCLI(t)
	testutil.MustWriteFile(t, filepath.Join(c.base, config.ProjectConfigFile), "ui: {\n\tcolor_scheme: \"none\"\n}\n")

	err := c.run("run", "Deploy", "--verbose")
	if got := exitCodeOf(err); got != types.ExitUsage {
		t.Fatalf("exit code = %d, want %d (err = %v)", got, types.ExitUsage, err)
	}
	if c.app.colorScheme != config.ColorSchemeNone {
		t.Errorf("colorScheme = %q, want none", c.app.colorScheme)
	}
	out := c.stderr.String()
	idx := strings.Index(out, "Unknown command")
	if idx < 0 {
		t.Fatalf("verbose stderr should include the issue help:\n%s", out)
	}
	if help := out[idx:]; strings.Contains(help, "\x1b[") {
		t.Errorf("color_scheme none should render help without ANSI escapes:\n%q", help)
	}
}
