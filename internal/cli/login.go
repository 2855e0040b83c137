package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Ning0612/pikpakcli/internal/config"
	"github.com/Ning0612/pikpakcli/internal/drive/gdrive"
)

// newLoginCmd creates the 'login' command
func newLoginCmd(app *App) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [account]",
		Short: "Log in and store the session",
		Long: `Log in to the drive backend and persist the resulting token.

For the pikpak backend the account is an email or phone number; the
password is prompted when not given with --password. For the gdrive
backend a browser OAuth flow is started instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config().Backend == config.BackendGDrive {
				return gdriveLogin(cmd, app)
			}

			account := ""
			if len(args) > 0 {
				account = args[0]
			}
			return pikpakLogin(cmd, app, account, password)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted if omitted)")

	return cmd
}

func pikpakLogin(cmd *cobra.Command, app *App, account, password string) error {
	ctx := cmd.Context()

	if account == "" {
		stored := app.Session().Account
		prompt := "Account: "
		if stored != "" {
			prompt = fmt.Sprintf("Account [%s]: ", stored)
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)

		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading account: %w", err)
		}
		account = strings.TrimSpace(line)
		if account == "" {
			account = stored
		}
		if account == "" {
			return fmt.Errorf("account is required")
		}
	}

	if password == "" {
		pw, err := readPassword(cmd)
		if err != nil {
			return err
		}
		password = pw
	}

	client, err := app.buildPikPakClient()
	if err != nil {
		return err
	}

	if err := client.Login(ctx, account, password); err != nil {
		return err
	}

	sess := app.Session()
	sess.SetCredentials(account, password)
	if err := sess.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", account)
	return nil
}

func gdriveLogin(cmd *cobra.Command, app *App) error {
	g := app.Config().GDrive
	auth := gdrive.NewAuthenticator(g.ClientID, g.ClientSecret, config.ExpandPath(g.TokenPath))

	if _, err := auth.Authenticate(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Token stored at %s\n", auth.TokenPath())
	return nil
}

// readPassword reads a password without echo when attached to a
// terminal, falling back to a plain line read otherwise
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
