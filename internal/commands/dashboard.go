package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.api.DashboardStats(cmd.Context())
			if err != nil {
				return explain(err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headerStyle.Render("Dashboard"))
			fmt.Fprintf(w, "  Pending tasks:              %d\n", stats.PendingTasks)
			fmt.Fprintf(w, "  Overdue tasks:              %s\n", stateStyle(lifecycle.StateOverdue).Render(fmt.Sprint(stats.OverdueTasks)))
			fmt.Fprintf(w, "  Pending intimations:        %d\n", stats.PendingIntimations)
			fmt.Fprintf(w, "  Intimations near deadline:  %s\n", stateStyle(lifecycle.StateNearDeadline).Render(fmt.Sprint(stats.IntimationsNearDeadline)))
			fmt.Fprintf(w, "  Active files:               %d\n", stats.ActiveFiles)
			fmt.Fprintf(w, "  Files needing attention:    %d\n", stats.FilesNeedingAttention)
			fmt.Fprintf(w, "  Completed today:            %d tasks, %d files (%d of %d tasks still pending)\n",
				stats.CompletedToday.Tasks, stats.CompletedToday.Files,
				stats.CompletedToday.PendingTasks, stats.CompletedToday.TotalTasks)
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report [YYYY-MM-DD]",
		Short: "Show everything recorded on one day, today by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.today()
			if len(args) == 1 {
				day = args[0]
			}

			report, err := a.api.DailyReport(cmd.Context(), day)
			if err != nil {
				return explain(err)
			}

			w := cmd.OutOrStdout()
			loc := a.settings.Location()
			fmt.Fprintln(w, headerStyle.Render("Daily report "+report.Day))
			fmt.Fprintf(w, "\nTasks (%d)\n", len(report.Tasks))
			renderTasks(w, report.Tasks, loc)
			fmt.Fprintf(w, "\nFiles opened (%d)\n", len(report.FilesOpened))
			renderFiles(w, report.FilesOpened, loc)
			fmt.Fprintf(w, "\nFiles closed (%d)\n", len(report.FilesClosed))
			renderFiles(w, report.FilesClosed, loc)
			fmt.Fprintf(w, "\nOther activities (%d)\n", len(report.Activities))
			renderActivities(w, report.Activities, loc)
			return nil
		},
	}
}
