// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List build commands and the steps they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			reg, err := app.orchestrator(cfg).Commands()
			if err != nil {
				return app.fail(err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Available Commands"))
			for _, name := range reg.Commands() {
				desc, _ := reg.Describe(name)
				steps, _ := reg.Lookup(name)
				fmt.Fprintf(app.stdout, "\n%s %s\n", CmdStyle.Render(name.String()), SubtitleStyle.Render("- "+desc.String()))
				for i, s := range steps {
					fmt.Fprintf(app.stdout, "  %d. %s %s\n", i+1, s.Name(), SubtitleStyle.Render(s.Description()))
				}
			}
			return nil
		},
	}
}
