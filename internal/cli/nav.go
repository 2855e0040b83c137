package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCdCmd creates the 'cd' command
func newCdCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cd [path]",
		Short: "Change the remote working directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, err := app.Service(ctx)
			if err != nil {
				return err
			}

			path := "/"
			if len(args) > 0 {
				path = args[0]
			}

			return svc.ChangeDir(ctx, path)
		},
	}
}

// newPwdCmd creates the 'pwd' command
func newPwdCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the remote working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Session().Cwd)
			return nil
		},
	}
}
