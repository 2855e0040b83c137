package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newShellCmd creates the 'shell' command, an interactive
// read-dispatch loop over the regular commands
func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())

			for {
				fmt.Fprintf(cmd.OutOrStdout(), "pikpak:%s> ", app.Session().Cwd)

				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout())
					return scanner.Err()
				}

				fields := splitShellLine(scanner.Text())
				if len(fields) == 0 {
					continue
				}
				if fields[0] == "exit" || fields[0] == "quit" {
					return nil
				}

				// A fresh command tree per line keeps flag values from
				// leaking between invocations. Setup is idempotent, so
				// the nested PersistentPreRunE is a no-op.
				inner := &cobra.Command{
					Use:           "pikpakcli",
					SilenceUsage:  true,
					SilenceErrors: true,
				}
				addCommands(inner, app)
				inner.SetArgs(fields)
				inner.SetIn(cmd.InOrStdin())
				inner.SetOut(cmd.OutOrStdout())
				inner.SetErr(cmd.ErrOrStderr())
				inner.SetContext(cmd.Context())

				if err := inner.Execute(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}
		},
	}
}

// splitShellLine splits a command line on whitespace, honoring single
// and double quotes so remote names with spaces stay one argument
func splitShellLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		started bool
	)

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t':
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if started {
		fields = append(fields, current.String())
	}
	return fields
}
