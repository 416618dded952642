package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"github.com/yukikurage/municipal-tracker/internal/testutil"
)

func TestDashboardService(t *testing.T) {
	db := testutil.NewDB(t)
	taskRepo := repository.NewTaskRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	tasks := NewTaskService(taskRepo, fileRepo, TaskServiceOptions{
		Policy:    lifecycle.DefaultPolicy,
		Lookahead: 3 * 24 * time.Hour,
		Now:       func() time.Time { return now },
	})
	dashboard := NewDashboardService(tasks, taskRepo, fileRepo, activityRepo, time.UTC)

	user := testutil.CreateUser(t, db, "inspector")
	today := testutil.Date(2024, 1, 10)

	// pending, past deadline
	testutil.CreateTask(t, db, user.ID, "late", testutil.WithDeadline(testutil.Date(2024, 1, 5)))
	// stored overdue
	testutil.CreateTask(t, db, user.ID, "stored", testutil.WithStatus(models.TaskStatusOverdue),
		testutil.WithDeadline(testutil.Date(2024, 1, 2)))
	// pending intimation near deadline, dated today
	testutil.CreateTask(t, db, user.ID, "near", testutil.WithCategory(models.CategoryIntimation),
		testutil.WithDeadline(testutil.Date(2024, 1, 12)), testutil.WithDate(today))
	// pending intimation far away
	testutil.CreateTask(t, db, user.ID, "far", testutil.WithCategory(models.CategoryIntimation),
		testutil.WithDeadline(testutil.Date(2024, 2, 1)))
	// completed today
	done := testutil.CreateTask(t, db, user.ID, "done", testutil.WithDate(today))
	_, err := tasks.ChangeStatus(ChangeStatusInput{TaskID: done.ID, To: models.TaskStatusCompleted, Actor: UserActor(user)})
	require.NoError(t, err)

	testutil.CreateFile(t, db, user.ID, "EXP-OLD")
	closed := testutil.CreateFile(t, db, user.ID, "EXP-CLOSED")
	closed.ExitDate = &now
	require.NoError(t, fileRepo.Update(closed))

	require.NoError(t, activityRepo.Create(&models.OtherActivity{Date: today, Description: "Patrol", CreatorID: user.ID}))

	stats, err := dashboard.Stats(now)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.PendingTasks)
	assert.Equal(t, int64(2), stats.OverdueTasks)
	assert.Equal(t, int64(2), stats.PendingIntimations)
	assert.Equal(t, int64(1), stats.IntimationsNearDeadline)
	assert.Equal(t, int64(1), stats.ActiveFiles)
	assert.Equal(t, int64(1), stats.FilesNeedingAttention)
	assert.Equal(t, int64(1), stats.CompletedToday.Tasks)
	assert.Equal(t, int64(1), stats.CompletedToday.Files)
	assert.Equal(t, int64(1), stats.CompletedToday.PendingTasks)
	assert.Equal(t, int64(2), stats.CompletedToday.TotalTasks)

	report, err := dashboard.DailyReport(now)
	require.NoError(t, err)
	assert.Equal(t, today, report.Day)
	assert.Len(t, report.Tasks, 2)
	assert.Empty(t, report.FilesOpened)
	assert.Len(t, report.FilesClosed, 1)
	assert.Len(t, report.Activities, 1)
}
