package services

import (
	"fmt"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// DashboardService aggregates counters and the per-day report feed.
type DashboardService struct {
	tasks        *TaskService
	taskRepo     repository.TaskRepository
	fileRepo     repository.FileRepository
	activityRepo repository.ActivityRepository
	loc          *time.Location
}

func NewDashboardService(
	tasks *TaskService,
	taskRepo repository.TaskRepository,
	fileRepo repository.FileRepository,
	activityRepo repository.ActivityRepository,
	loc *time.Location,
) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		tasks:        tasks,
		taskRepo:     taskRepo,
		fileRepo:     fileRepo,
		activityRepo: activityRepo,
		loc:          loc,
	}
}

type CompletedToday struct {
	Tasks        int64 `json:"tasks"`
	Files        int64 `json:"files"`
	PendingTasks int64 `json:"pending_tasks"`
	TotalTasks   int64 `json:"total_tasks"`
}

type DashboardStats struct {
	PendingTasks            int64          `json:"pending_tasks"`
	OverdueTasks            int64          `json:"overdue_tasks"`
	ActiveFiles             int64          `json:"active_files"`
	FilesNeedingAttention   int64          `json:"files_needing_attention"`
	PendingIntimations      int64          `json:"pending_intimations"`
	IntimationsNearDeadline int64          `json:"intimations_near_deadline"`
	CompletedToday          CompletedToday `json:"completed_today"`
}

// DailyReport holds the subsets of one calendar day that the report exporter consumes.
type DailyReport struct {
	Day         time.Time
	Tasks       []TaskRecord
	FilesOpened []models.File
	FilesClosed []models.File
	Activities  []models.OtherActivity
}

type counter func() (int64, error)

// Stats computes the dashboard counters at now. Overdue counts both stored
// overdue tasks and pending tasks already past their deadline, so the figure
// does not wait for the next sweep.
func (s *DashboardService) Stats(now time.Time) (*DashboardStats, error) {
	pending := []models.TaskStatus{models.TaskStatusPending}
	intimation := []models.TaskCategory{models.CategoryIntimation}
	inProcess := models.FileStatusInProcess
	dayStart, dayEnd := utils.DayBounds(now, s.loc)
	justBefore := now.Add(-time.Nanosecond)
	horizon := now.Add(s.tasks.Lookahead())

	stats := &DashboardStats{}
	var storedOverdue, pendingPastDeadline int64

	counters := []struct {
		dst *int64
		fn  counter
	}{
		{&stats.PendingTasks, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{Statuses: pending})
		}},
		{&storedOverdue, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{Statuses: []models.TaskStatus{models.TaskStatusOverdue}})
		}},
		{&pendingPastDeadline, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{Statuses: pending, DeadlineTo: &justBefore})
		}},
		{&stats.PendingIntimations, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{Statuses: pending, Categories: intimation})
		}},
		{&stats.IntimationsNearDeadline, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{
				Statuses: pending, Categories: intimation, DeadlineFrom: &now, DeadlineTo: &horizon,
			})
		}},
		{&stats.ActiveFiles, func() (int64, error) {
			return s.fileRepo.Count(repository.FileFilter{Status: &inProcess})
		}},
		{&stats.FilesNeedingAttention, func() (int64, error) {
			return s.fileRepo.Count(repository.FileFilter{Status: &inProcess, EntryBefore: &dayStart})
		}},
		{&stats.CompletedToday.Tasks, func() (int64, error) {
			return s.taskRepo.CountCompletedBetween(dayStart, dayEnd)
		}},
		{&stats.CompletedToday.Files, func() (int64, error) {
			return s.fileRepo.Count(repository.FileFilter{ExitFrom: &dayStart, ExitTo: &dayEnd})
		}},
		{&stats.CompletedToday.PendingTasks, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{Statuses: pending, DateFrom: &dayStart, DateTo: &dayEnd})
		}},
		{&stats.CompletedToday.TotalTasks, func() (int64, error) {
			return s.taskRepo.Count(repository.TaskFilter{DateFrom: &dayStart, DateTo: &dayEnd})
		}},
	}

	for _, c := range counters {
		n, err := c.fn()
		if err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
		*c.dst = n
	}
	stats.OverdueTasks = storedOverdue + pendingPastDeadline

	return stats, nil
}

// DailyReport gathers the tasks, files and activities dated on day.
func (s *DashboardService) DailyReport(day time.Time) (*DailyReport, error) {
	start, end := utils.DayBounds(day, s.loc)

	tasks, _, err := s.tasks.ListTasks(ListTasksInput{DateFrom: &start, DateTo: &end, SortBy: repository.SortByDate})
	if err != nil {
		return nil, err
	}

	opened, _, err := s.fileRepo.List(repository.FileFilter{EntryFrom: &start, EntryTo: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	closed, _, err := s.fileRepo.List(repository.FileFilter{ExitFrom: &start, ExitTo: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	activities, _, err := s.activityRepo.List(repository.ActivityFilter{DateFrom: &start, DateTo: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return &DailyReport{
		Day:         start,
		Tasks:       tasks,
		FilesOpened: opened,
		FilesClosed: closed,
		Activities:  activities,
	}, nil
}
