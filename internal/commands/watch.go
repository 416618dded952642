package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/client"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/logger"
	"github.com/yukikurage/municipal-tracker/internal/notify"
	"go.uber.org/zap"
)

// refreshingSource reloads the store before every dispatcher check. A failed
// reload falls back to the cached tasks.
type refreshingSource struct {
	ctx   context.Context
	store *client.Store
	log   *zap.Logger
}

func (s *refreshingSource) Tasks() []dto.TaskDTO {
	if err := s.store.Refresh(s.ctx); err != nil {
		s.log.Warn("refresh failed, using cached tasks", zap.Error(err))
	}
	return s.store.Tasks()
}

type watchFlags struct {
	once        bool
	native      bool
	reminders   bool
	intimations bool
	verbose     bool
}

func newWatchCmd(a *app) *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Alert on tasks near their deadline or overdue",
		Long: `watch checks every task once per interval and raises one alert per task
and day for tasks that are near their deadline or overdue. Alerts go to the
terminal and, when a Bark device key is configured, to the phone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if flags.verbose {
				level = "debug"
			}
			log, err := logger.New(level, false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			store, err := a.store(ctx)
			if err != nil {
				return err
			}
			interval, err := a.settings.Interval()
			if err != nil {
				return err
			}

			inbox := notify.NewInbox()
			inbox.UpdatePreferences(notify.PreferencesUpdate{
				TaskReminders:       &flags.reminders,
				IntimationDeadlines: &flags.intimations,
				Native:              &flags.native,
			})

			dispatcher := notify.NewDispatcher(&refreshingSource{ctx: ctx, store: store, log: log}, inbox, notify.DispatcherOptions{
				Lookahead: a.settings.Lookahead(),
				Interval:  interval,
				Location:  a.settings.Location(),
				Notifier:  a.notifier(cmd.ErrOrStderr()),
				Logger:    log,
				Now:       a.now,
			})

			out := cmd.OutOrStdout()
			loc := a.settings.Location()
			if flags.once {
				raised := dispatcher.Check(a.now())
				if len(raised) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("Nothing needs attention."))
				}
				fmt.Fprintln(out, mutedStyle.Render("Tasks loaded at "+store.RefreshedAt().In(loc).Format("15:04:05")))
				return nil
			}

			fmt.Fprintf(out, "Watching %d tasks every %s, Ctrl+C to stop\n", len(store.Tasks()), interval)
			dispatcher.Start(ctx)
			<-ctx.Done()
			dispatcher.Stop()

			fmt.Fprintf(out, "\nLast refresh at %s\n", store.RefreshedAt().In(loc).Format("15:04:05"))
			fmt.Fprintf(out, "%d alerts raised this session:\n", len(inbox.List()))
			for _, n := range inbox.List() {
				renderNotification(out, n, loc)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.once, "once", false, "check once and exit")
	cmd.Flags().BoolVar(&flags.native, "native", true, "send alerts to the terminal bell and Bark")
	cmd.Flags().BoolVar(&flags.reminders, "reminders", true, "alert on any task with a deadline")
	cmd.Flags().BoolVar(&flags.intimations, "intimations", true, "alert on intimation deadlines")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log dispatcher activity")
	return cmd
}

// notifier writes alerts to w and, when configured, pushes them through Bark.
func (a *app) notifier(w io.Writer) notify.Notifier {
	terminal := notify.NewTerminalNotifier(w)
	bark := a.settings.Bark
	if bark.DeviceKey == "" {
		return terminal
	}
	return notify.Multi(terminal, notify.NewBarkNotifier(bark.Server, bark.DeviceKey, bark.Group))
}
