package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TaskRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo TaskRepository
	user *models.User
}

func (suite *TaskRepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.repo = NewTaskRepository(suite.db)
	suite.user = testutil.CreateUser(suite.T(), suite.db, "inspector")
}

func (suite *TaskRepositoryTestSuite) TestFindDetailed_JoinsFileAndCreator() {
	file := testutil.CreateFile(suite.T(), suite.db, suite.user.ID, "EXP-1")
	task := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1", testutil.WithFile(file.ID))
	loose := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-2")

	detail, err := suite.repo.FindDetailed(task.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Caption of EXP-1", detail.FileCaption)
	assert.Equal(suite.T(), "inspector Inspector", detail.CreatorName)
	assert.Equal(suite.T(), "A-1", detail.ActNumber)

	detail, err = suite.repo.FindDetailed(loose.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), detail.FileCaption)

	_, err = suite.repo.FindDetailed(9999)
	assert.ErrorIs(suite.T(), err, gorm.ErrRecordNotFound)
}

func (suite *TaskRepositoryTestSuite) TestList_FiltersCompose() {
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1",
		testutil.WithCategory(models.CategoryClosure), testutil.WithDate(testutil.Date(2024, 1, 5)))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-2",
		testutil.WithCategory(models.CategoryClosure), testutil.WithStatus(models.TaskStatusCompleted),
		testutil.WithDate(testutil.Date(2024, 1, 6)))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-3",
		testutil.WithCategory(models.CategorySeizure), testutil.WithDate(testutil.Date(2024, 1, 7)))

	from := testutil.Date(2024, 1, 5)
	to := testutil.Date(2024, 1, 6)
	tasks, total, err := suite.repo.List(TaskFilter{
		Statuses:   []models.TaskStatus{models.TaskStatusPending},
		Categories: []models.TaskCategory{models.CategoryClosure, models.CategorySeizure},
		DateFrom:   &from,
		DateTo:     &to,
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), total)
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), "A-1", tasks[0].ActNumber)
}

func (suite *TaskRepositoryTestSuite) TestList_DeadlineSortKeepsMissingLast() {
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "none")
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "late", testutil.WithDeadline(testutil.Date(2024, 3, 1)))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "early", testutil.WithDeadline(testutil.Date(2024, 2, 1)))

	order := func(desc bool) []string {
		tasks, _, err := suite.repo.List(TaskFilter{SortBy: SortByDeadline, Descending: desc})
		suite.Require().NoError(err)
		acts := make([]string, len(tasks))
		for i, task := range tasks {
			acts[i] = task.ActNumber
		}
		return acts
	}

	assert.Equal(suite.T(), []string{"early", "late", "none"}, order(false))
	assert.Equal(suite.T(), []string{"late", "early", "none"}, order(true))
}

func (suite *TaskRepositoryTestSuite) TestList_Paginates() {
	for _, act := range []string{"A-1", "A-2", "A-3"} {
		testutil.CreateTask(suite.T(), suite.db, suite.user.ID, act)
	}

	tasks, total, err := suite.repo.List(TaskFilter{SortBy: SortByActNumber, Page: 2, PageSize: 2})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(3), total)
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), "A-3", tasks[0].ActNumber)
}

func (suite *TaskRepositoryTestSuite) TestUpdate_NeverWritesStatus() {
	task := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1")

	task.Status = models.TaskStatusCompleted
	task.Notes = "edited"
	suite.Require().NoError(suite.repo.Update(task))

	stored, err := suite.repo.FindByID(task.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.TaskStatusPending, stored.Status)
	assert.Equal(suite.T(), "edited", stored.Notes)
}

func (suite *TaskRepositoryTestSuite) TestUpdateStatus_AppendsAudit() {
	task := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1")
	changedAt := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	err := suite.repo.UpdateStatus(&models.TaskStatusChange{
		TaskID:     task.ID,
		FromStatus: models.TaskStatusPending,
		ToStatus:   models.TaskStatusCompleted,
		Note:       "resolved",
		Actor:      "inspector",
		ActorID:    &suite.user.ID,
		ChangedAt:  changedAt,
	})
	suite.Require().NoError(err)

	stored, err := suite.repo.FindByID(task.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.TaskStatusCompleted, stored.Status)

	history, err := suite.repo.History(task.ID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	assert.Equal(suite.T(), models.TaskStatusPending, history[0].FromStatus)
	assert.Equal(suite.T(), models.TaskStatusCompleted, history[0].ToStatus)
	assert.Equal(suite.T(), "resolved", history[0].Note)

	completed, err := suite.repo.CountCompletedBetween(testutil.Date(2024, 1, 11), testutil.Date(2024, 1, 12))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), completed)
}

func (suite *TaskRepositoryTestSuite) TestUpdateStatus_StaleFromIsConflict() {
	task := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1", testutil.WithStatus(models.TaskStatusCompleted))

	err := suite.repo.UpdateStatus(&models.TaskStatusChange{
		TaskID:     task.ID,
		FromStatus: models.TaskStatusPending,
		ToStatus:   models.TaskStatusCompleted,
		Actor:      "inspector",
		ChangedAt:  time.Now(),
	})
	assert.ErrorIs(suite.T(), err, ErrStatusConflict)

	history, err := suite.repo.History(task.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), history)
}

func (suite *TaskRepositoryTestSuite) TestDelete_RemovesHistory() {
	task := testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "A-1")
	suite.Require().NoError(suite.repo.UpdateStatus(&models.TaskStatusChange{
		TaskID: task.ID, FromStatus: models.TaskStatusPending, ToStatus: models.TaskStatusCompleted,
		Actor: "inspector", ChangedAt: time.Now(),
	}))

	suite.Require().NoError(suite.repo.Delete(task.ID))

	var remaining int64
	suite.db.Model(&models.TaskStatusChange{}).Where("task_id = ?", task.ID).Count(&remaining)
	assert.Zero(suite.T(), remaining)

	assert.ErrorIs(suite.T(), suite.repo.Delete(task.ID), gorm.ErrRecordNotFound)
}

func (suite *TaskRepositoryTestSuite) TestPendingPastDeadline() {
	now := testutil.Date(2024, 1, 10)
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "past", testutil.WithDeadline(testutil.Date(2024, 1, 9)))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "equal", testutil.WithDeadline(now))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "done",
		testutil.WithDeadline(testutil.Date(2024, 1, 1)), testutil.WithStatus(models.TaskStatusCompleted))
	testutil.CreateTask(suite.T(), suite.db, suite.user.ID, "none")

	tasks, err := suite.repo.PendingPastDeadline(now)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	assert.Equal(suite.T(), "past", tasks[0].ActNumber)
}

func TestTaskRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}

func newMockRepo(t *testing.T) (TaskRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewTaskRepository(db), mock
}

func TestUpdateStatus_ZeroRowsRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `tasks` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(&models.TaskStatusChange{
		TaskID:     7,
		FromStatus: models.TaskStatusPending,
		ToStatus:   models.TaskStatusCompleted,
		Actor:      "inspector",
		ChangedAt:  time.Now(),
	})

	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_CommitsUpdateAndInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `tasks` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `task_status_changes`")).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	change := &models.TaskStatusChange{
		TaskID:     7,
		FromStatus: models.TaskStatusPending,
		ToStatus:   models.TaskStatusCompleted,
		Actor:      "inspector",
		ChangedAt:  time.Now(),
	}
	require.NoError(t, repo.UpdateStatus(change))
	assert.Equal(t, uint64(3), change.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
