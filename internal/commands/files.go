package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/view"
)

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"expedientes"},
		Short:   "List and record files",
	}

	var (
		status string
		query  string
	)
	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter view.FileFilter
			if status != "" {
				s := models.FileStatus(status)
				if s != models.FileStatusInProcess && s != models.FileStatusCompleted {
					return fmt.Errorf("unknown file status %q", status)
				}
				filter.Status = &s
			}
			filter.Query = query

			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			renderFiles(cmd.OutOrStdout(), store.FileView(filter), a.settings.Location())
			return nil
		},
	}
	list.Flags().StringVarP(&status, "status", "s", "", "in_process or completed")
	list.Flags().StringVarP(&query, "query", "q", "", "search case number, caption and destination")

	var (
		req      dto.FileRequest
		exitDate string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a new file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exitDate != "" {
				req.ExitDate = &exitDate
			}
			file, err := a.api.CreateFile(cmd.Context(), req)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded file #%d (%s)\n", file.ID, file.CaseNumber)
			return nil
		},
	}
	add.Flags().StringVar(&req.EntryDate, "entry", "", "entry date")
	add.Flags().StringVar(&req.CaseNumber, "case", "", "case number")
	add.Flags().StringVar(&req.Caption, "caption", "", "caption")
	add.Flags().StringVar(&exitDate, "exit", "", "exit date, closes the file")
	add.Flags().StringVar(&req.Destination, "destination", "", "destination office")
	add.Flags().StringVar(&req.Notes, "notes", "", "free notes")

	tasks := &cobra.Command{
		Use:   "tasks [file-id]",
		Short: "List the tasks linked to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			linked, err := a.api.FileTasks(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}
			renderTasks(cmd.OutOrStdout(), linked, a.settings.Location())
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm [file-id]",
		Short: "Delete a file; linked tasks are kept and unlinked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteFile(cmd.Context(), id); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted file #%d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, tasks, rm)
	return cmd
}

func newActivitiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List and record other activities",
	}

	var query string
	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List activities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			renderActivities(cmd.OutOrStdout(), store.ActivityView(query), a.settings.Location())
			return nil
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "search description, address and notes")

	var req dto.ActivityRequest
	add := &cobra.Command{
		Use:   "add [description]",
		Short: "Record an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Description = args[0]
			if req.Date == "" {
				req.Date = a.today()
			}
			activity, err := a.api.CreateActivity(cmd.Context(), req)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded activity #%d\n", activity.ID)
			return nil
		},
	}
	add.Flags().StringVar(&req.Date, "date", "", "activity date, defaults to today")
	add.Flags().StringVar(&req.Address, "address", "", "address")
	add.Flags().StringVar(&req.Notes, "notes", "", "free notes")

	cmd.AddCommand(list, add)
	return cmd
}
