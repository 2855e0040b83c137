package cli

import (
	"github.com/spf13/cobra"

	"github.com/Ning0612/pikpakcli/internal/logger"
)

// NewRootCmd builds the pikpakcli command tree around the given app
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pikpakcli",
		Short: "Browse and batch-download a PikPak cloud drive",
		Long: `pikpakcli browses a PikPak (or Google Drive) account from the terminal
and downloads whole directory trees with pattern filters, parallel
workers and resumable transfers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&app.SessionPath, "session", "", "session file path (default .pikpak.session)")
	rootCmd.PersistentFlags().StringVar(&app.Backend, "backend", "", "drive backend: pikpak or gdrive")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "enable debug logging")

	addCommands(rootCmd, app)
	rootCmd.AddCommand(newShellCmd(app))

	return rootCmd
}

// addCommands registers every non-shell command. The interactive shell
// reuses this to build its inner dispatch tree.
func addCommands(root *cobra.Command, app *App) {
	root.AddCommand(
		newLoginCmd(app),
		newLsCmd(app),
		newCdCmd(app),
		newPwdCmd(app),
		newDuCmd(app),
		newRmCmd(app),
		newConfigCmd(app),
		newInfoCmd(app),
		newDownloadCmd(app),
	)
}

// Execute runs the CLI
func Execute() error {
	app := NewApp()
	rootCmd := NewRootCmd(app)

	defer logger.Shutdown()
	defer app.Close()

	return rootCmd.Execute()
}
