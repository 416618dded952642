// Package commands implements the tracker terminal client.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/client"
	"github.com/yukikurage/municipal-tracker/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
)

// SetVersion sets the version information
func SetVersion(v, c string) {
	version = v
	commit = c
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	settings   *Settings
	api        *client.Client
	now        func() time.Time
}

// today is the current calendar day in the configured timezone.
func (a *app) today() string {
	return a.now().In(a.settings.Location()).Format(constants.DateLayout)
}

// NewRootCmd builds the command tree. A fresh tree per invocation keeps flag
// values from leaking between runs.
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:   "tracker",
		Short: "Terminal client for the municipal tracking service",
		Long: `tracker lists and records actas, expedientes and other activities,
and watches deadlines for intimations and other tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings(a.configPath)
			if err != nil {
				return err
			}
			if server, _ := cmd.Flags().GetString("server"); server != "" {
				settings.ServerURL = server
			}
			a.settings = settings
			a.api = client.New(settings.ServerURL, client.WithToken(settings.Token))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", DefaultSettingsPath(), "path to the client config file")
	root.PersistentFlags().String("server", "", "server URL, overrides the config file")

	root.AddCommand(
		newLoginCmd(a),
		newWhoamiCmd(a),
		newTasksCmd(a),
		newFilesCmd(a),
		newActivitiesCmd(a),
		newDashboardCmd(a),
		newReportCmd(a),
		newWatchCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tracker %s (%s)\n", version, commit)
			},
		},
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// store loads a fresh client store for commands that read through it.
func (a *app) store(ctx context.Context) (*client.Store, error) {
	store := client.NewStore(a.api)
	if err := store.Refresh(ctx); err != nil {
		return nil, explain(err)
	}
	return store, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// explain turns client errors into messages for the terminal.
func explain(err error) error {
	var validation *client.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("not logged in or session expired; run `tracker login`")
	case errors.As(err, &validation):
		return validation
	default:
		return err
	}
}
