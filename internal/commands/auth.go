package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/client"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TRACKER_PASSWORD")
			}
			if password == "" {
				return errors.New("password required: use --password or TRACKER_PASSWORD")
			}

			resp, err := a.api.Login(cmd.Context(), args[0], password)
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("invalid username or password")
			}
			if err != nil {
				return explain(err)
			}

			a.settings.Token = resp.Token
			if err := a.settings.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (session valid until %s)\n",
				resp.User.FullName, resp.ExpiresAt.In(a.settings.Location()).Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.api.Me(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.FullName, user.Username)
			return nil
		},
	}
}
