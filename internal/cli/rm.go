package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRmCmd creates the 'rm' command
func newRmCmd(app *App) *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Move a remote file or directory to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, err := app.Service(ctx)
			if err != nil {
				return err
			}

			if err := svc.Remove(ctx, args[0], permanent); err != nil {
				return err
			}

			if permanent {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Trashed %s\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "delete permanently instead of trashing")

	return cmd
}
