package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd creates the 'config' command
func newConfigCmd(app *App) *cobra.Command {
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change session settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.Session()

			if downloadDir != "" {
				if err := sess.SetDownloadDir(downloadDir); err != nil {
					return err
				}
				if err := sess.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Download directory set to %s\n", sess.DownloadDir)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backend:      %s\n", app.Config().Backend)
			fmt.Fprintf(cmd.OutOrStdout(), "download dir: %s\n", sess.DownloadDir)
			fmt.Fprintf(cmd.OutOrStdout(), "workers:      %d\n", app.Config().Download.Workers)
			return nil
		},
	}

	cmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "set the default download directory")

	return cmd
}
