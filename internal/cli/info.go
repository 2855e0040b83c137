package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInfoCmd creates the 'info' command
func newInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show session information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.Session()

			account := sess.Account
			if account == "" {
				account = "(not logged in)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session file: %s\n", sess.Path())
			fmt.Fprintf(out, "backend:      %s\n", app.Config().Backend)
			fmt.Fprintf(out, "account:      %s\n", account)
			fmt.Fprintf(out, "cwd:          %s\n", sess.Cwd)
			fmt.Fprintf(out, "download dir: %s\n", sess.DownloadDir)
			return nil
		},
	}
}
