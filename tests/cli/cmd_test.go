// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// Each script in testdata runs dmsbuild in a scratch repository. The binary
// is the test binary itself, so no dotnet or container tooling is needed as
// long as scripts stick to dry runs and rejected invocations.
package cli

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/andonyns/Data-Management-Service/cmd/dmsbuild"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"dmsbuild": cmd.Run,
	}))
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			// Keep user config lookups inside the scratch directory.
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("XDG_CONFIG_HOME", env.WorkDir+"/.config")
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
