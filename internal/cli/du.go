package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// newDuCmd creates the 'du' command
func newDuCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "du [path]",
		Short: "Sum file sizes under a remote path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, err := app.Service(ctx)
			if err != nil {
				return err
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			total, files, err := svc.Du(ctx, path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: some directories could not be listed: %v\n", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes) in %d files\n",
				domain.FormatSize(total), total, files)
			return nil
		},
	}
}
