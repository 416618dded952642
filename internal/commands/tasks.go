package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/utils"
	"github.com/yukikurage/municipal-tracker/internal/view"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"actas"},
		Short:   "List and record tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksShowCmd(a),
		newTasksAddCmd(a),
		newTasksStatusCmd(a),
		newTasksHistoryCmd(a),
		newTasksRemoveCmd(a),
	)
	return cmd
}

type taskListFlags struct {
	statuses   string
	categories string
	from       string
	to         string
	fileID     uint64
	sort       string
	desc       bool
}

// filter builds the view criteria. A bare YYYY-MM-DD upper bound covers the
// whole day.
func (f taskListFlags) filter(loc *time.Location) (view.TaskFilter, error) {
	var filter view.TaskFilter
	for _, s := range splitFlag(f.statuses) {
		status := models.TaskStatus(s)
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, c := range splitFlag(f.categories) {
		category := models.TaskCategory(c)
		if !category.Valid() {
			return filter, fmt.Errorf("unknown category %q", c)
		}
		filter.Categories = append(filter.Categories, category)
	}
	if f.from != "" {
		from, err := utils.ParseDate(f.from, loc)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if f.to != "" {
		to, err := utils.ParseDate(f.to, loc)
		if err != nil {
			return filter, err
		}
		if len(strings.TrimSpace(f.to)) == len(constants.DateLayout) {
			_, to = utils.DayBounds(to, loc)
		}
		filter.To = &to
	}
	return filter, nil
}

func (f taskListFlags) order() (view.TaskSort, error) {
	key := view.SortKey(f.sort)
	if f.sort != "" && !key.Valid() {
		return view.TaskSort{}, fmt.Errorf("unknown sort key %q", f.sort)
	}
	return view.TaskSort{Key: key, Descending: f.desc}, nil
}

func splitFlag(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newTasksListCmd(a *app) *cobra.Command {
	var flags taskListFlags

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks with optional filters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := a.settings.Location()
			filter, err := flags.filter(loc)
			if err != nil {
				return err
			}
			order, err := flags.order()
			if err != nil {
				return err
			}

			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tasks := store.TaskView(filter, order)
			if flags.fileID != 0 {
				linked := tasks[:0]
				for _, task := range tasks {
					if task.FileID != nil && *task.FileID == flags.fileID {
						linked = append(linked, task)
					}
				}
				tasks = linked
			}

			renderTasks(cmd.OutOrStdout(), tasks, loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.statuses, "status", "s", "", "comma separated statuses: pending,overdue,completed")
	cmd.Flags().StringVarP(&flags.categories, "category", "c", "", "comma separated categories")
	cmd.Flags().StringVar(&flags.from, "from", "", "earliest acta date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "latest acta date (YYYY-MM-DD)")
	cmd.Flags().Uint64Var(&flags.fileID, "file", 0, "only tasks linked to this file")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "date, deadline, act_number, category, status or created_at")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")
	return cmd
}

func newTasksShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.api.GetTask(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}
			renderTask(cmd.OutOrStdout(), *task, a.settings.Location())
			return nil
		},
	}
}

func newTasksAddCmd(a *app) *cobra.Command {
	var (
		req      dto.TaskRequest
		category string
		deadline string
		fileID   uint64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Date == "" {
				req.Date = a.today()
			}
			req.Category = models.TaskCategory(category)
			if deadline != "" {
				req.Deadline = &deadline
			}
			if fileID != 0 {
				req.FileID = &fileID
			}

			task, err := a.api.CreateTask(cmd.Context(), req)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded task #%d (%s)\n", task.ID, task.ActNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Date, "date", "", "acta date, defaults to today")
	cmd.Flags().StringVarP(&category, "category", "c", "", "task category")
	cmd.Flags().StringVar(&req.ActNumber, "act", "", "acta number")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (required for intimations)")
	cmd.Flags().StringVar(&req.ViolatorName, "violator", "", "violator name")
	cmd.Flags().StringVar(&req.ViolatorDNI, "dni", "", "violator DNI")
	cmd.Flags().StringVar(&req.ViolatorAddress, "address", "", "violator address")
	cmd.Flags().StringVarP(&req.ViolationDescription, "description", "d", "", "violation description")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "free notes")
	cmd.Flags().Uint64Var(&fileID, "file", 0, "linked file id")
	return cmd
}

func newTasksStatusCmd(a *app) *cobra.Command {
	var (
		note     string
		expected string
	)

	cmd := &cobra.Command{
		Use:   "status [task-id] [pending|overdue|completed]",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to := models.TaskStatus(args[1])
			if !to.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			var expectedStatus *models.TaskStatus
			if expected != "" {
				s := models.TaskStatus(expected)
				expectedStatus = &s
			}

			task, err := a.api.ChangeTaskStatus(cmd.Context(), id, dto.StatusChangeRequest{
				Status:         to,
				Note:           note,
				ExpectedStatus: expectedStatus,
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d is now %s\n", task.ID, statusStyle(task.Status).Render(string(task.Status)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "note stored with the change")
	cmd.Flags().StringVar(&expected, "expect", "", "fail unless the task currently has this status")
	return cmd
}

func newTasksHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [task-id]",
		Short: "Show the status changes of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			history, err := a.api.TaskHistory(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}
			renderHistory(cmd.OutOrStdout(), history, a.settings.Location())
			return nil
		},
	}
}

func newTasksRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [task-id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteTask(cmd.Context(), id); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			return nil
		},
	}
}
