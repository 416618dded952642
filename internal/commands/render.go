package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/notify"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.TaskStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.TaskStatusOverdue:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		models.TaskStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
	stateStyles = map[lifecycle.DeadlineState]lipgloss.Style{
		lifecycle.StateNearDeadline: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		lifecycle.StateOverdue:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

func statusStyle(status models.TaskStatus) lipgloss.Style {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

func stateStyle(state lifecycle.DeadlineState) lipgloss.Style {
	if style, ok := stateStyles[state]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// cell pads s to width before styling so escape codes do not break columns.
func cell(style lipgloss.Style, s string, width int) string {
	if len(s) > width {
		s = s[:width-3] + "..."
	}
	return style.Render(fmt.Sprintf("%-*s", width, s))
}

func day(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(constants.DateLayout)
}

func renderTasks(w io.Writer, tasks []dto.TaskDTO, loc *time.Location) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks found."))
		return
	}

	plain := lipgloss.NewStyle()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-11s %-12s %-19s %-11s %-11s %-14s %s",
		"ID", "DATE", "ACT", "CATEGORY", "STATUS", "DEADLINE", "STATE", "VIOLATOR")))
	for _, task := range tasks {
		date := task.Date
		fmt.Fprintln(w, strings.Join([]string{
			cell(plain, fmt.Sprint(task.ID), 5),
			cell(plain, day(&date, loc), 11),
			cell(plain, task.ActNumber, 12),
			cell(plain, string(task.Category), 19),
			cell(statusStyle(task.Status), string(task.Status), 11),
			cell(plain, day(task.Deadline, loc), 11),
			cell(stateStyle(task.DeadlineState), string(task.DeadlineState), 14),
			task.ViolatorName,
		}, " "))
	}
}

func renderTask(w io.Writer, task dto.TaskDTO, loc *time.Location) {
	date := task.Date
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("Task #%d", task.ID)), task.ActNumber)
	fmt.Fprintf(w, "  Category:  %s\n", task.Category)
	fmt.Fprintf(w, "  Date:      %s\n", day(&date, loc))
	fmt.Fprintf(w, "  Deadline:  %s (%s)\n", day(task.Deadline, loc), stateStyle(task.DeadlineState).Render(string(task.DeadlineState)))
	fmt.Fprintf(w, "  Status:    %s\n", statusStyle(task.Status).Render(string(task.Status)))
	fmt.Fprintf(w, "  Violator:  %s %s\n", task.ViolatorName, mutedStyle.Render(task.ViolatorDNI))
	if task.FileCaption != "" {
		fmt.Fprintf(w, "  File:      %s\n", task.FileCaption)
	}
	if task.Notes != "" {
		fmt.Fprintf(w, "  Notes:     %s\n", task.Notes)
	}
}

func renderHistory(w io.Writer, history []dto.StatusChangeDTO, loc *time.Location) {
	if len(history) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No status changes recorded."))
		return
	}
	for _, change := range history {
		note := change.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(w, "%s  %s -> %s  by %s  %s\n",
			change.ChangedAt.In(loc).Format("2006-01-02 15:04"),
			statusStyle(change.From).Render(string(change.From)),
			statusStyle(change.To).Render(string(change.To)),
			change.Actor,
			mutedStyle.Render(note))
	}
}

func renderFiles(w io.Writer, files []dto.FileDTO, loc *time.Location) {
	if len(files) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No files found."))
		return
	}

	plain := lipgloss.NewStyle()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-11s %-14s %-11s %-11s %s",
		"ID", "ENTRY", "CASE", "STATUS", "EXIT", "CAPTION")))
	for _, file := range files {
		entry := file.EntryDate
		status := statusStyles[models.TaskStatusPending]
		if file.Status == models.FileStatusCompleted {
			status = statusStyles[models.TaskStatusCompleted]
		}
		fmt.Fprintln(w, strings.Join([]string{
			cell(plain, fmt.Sprint(file.ID), 5),
			cell(plain, day(&entry, loc), 11),
			cell(plain, file.CaseNumber, 14),
			cell(status, string(file.Status), 11),
			cell(plain, day(file.ExitDate, loc), 11),
			file.Caption,
		}, " "))
	}
}

func renderActivities(w io.Writer, activities []dto.ActivityDTO, loc *time.Location) {
	if len(activities) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No activities found."))
		return
	}
	for _, activity := range activities {
		date := activity.Date
		fmt.Fprintf(w, "#%-4d %s  %s %s\n", activity.ID, day(&date, loc), activity.Description, mutedStyle.Render(activity.Address))
	}
}

func renderNotification(w io.Writer, n notify.Notification, loc *time.Location) {
	marker := " "
	if !n.Read {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %s %s %s\n", marker,
		mutedStyle.Render(n.CreatedAt.In(loc).Format("15:04")),
		notify.KindStyle(n.Kind).Render(n.Title),
		n.Message)
}
