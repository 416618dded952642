package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	fileRepo  repository.FileRepository
	policy    lifecycle.Policy
	lookahead time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// TaskServiceOptions tunes the lifecycle rules of a TaskService.
type TaskServiceOptions struct {
	Policy    lifecycle.Policy
	Lookahead time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, fileRepo repository.FileRepository, opts TaskServiceOptions) *TaskService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &TaskService{
		taskRepo:  taskRepo,
		fileRepo:  fileRepo,
		policy:    opts.Policy,
		lookahead: opts.Lookahead,
		now:       opts.Now,
		log:       opts.Logger,
	}
}

// TaskRecord is a joined task with its audit list and its deadline state at
// the time it was read.
type TaskRecord struct {
	models.TaskDetail
	History []models.TaskStatusChange
	State   lifecycle.DeadlineState
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Date                 *time.Time
	Category             models.TaskCategory
	ActNumber            string
	Deadline             *time.Time
	ViolatorName         string
	ViolatorDNI          string
	ViolatorAddress      string
	ViolationDescription string
	Notes                string
	FileID               *uint64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Statuses   []models.TaskStatus
	Categories []models.TaskCategory
	DateFrom   *time.Time
	DateTo     *time.Time
	FileID     *uint64
	SortBy     repository.TaskSortField
	Descending bool
	Page       int
	PageSize   int
}

// Actor identifies who requests a status change.
type Actor struct {
	ID     *uint64
	Name   string
	System bool
}

// SystemActor is the actor of automatic transitions.
var SystemActor = Actor{Name: constants.SystemActorName, System: true}

// UserActor builds the actor for an authenticated user.
func UserActor(user *models.User) Actor {
	id := user.ID
	return Actor{ID: &id, Name: user.DisplayName()}
}

// ChangeStatusInput represents a status change request
type ChangeStatusInput struct {
	TaskID uint64
	To     models.TaskStatus
	Note   string
	Actor  Actor
	// Expected, when set, must equal the stored status.
	Expected *models.TaskStatus
}

// Lookahead returns the near-deadline window used by this service.
func (s *TaskService) Lookahead() time.Duration {
	return s.lookahead
}

// validate checks input. current is the stored task on update and nil on
// create; an overdue task must keep a deadline that has already passed.
func (s *TaskService) validate(input TaskInput, current *models.Task) error {
	fields := fieldErrors{}

	if input.Date == nil || input.Date.IsZero() {
		fields.add("date", "is required")
	}
	switch {
	case input.Category == "":
		fields.add("category", "is required")
	case !input.Category.Valid():
		fields.add("category", "is not a known category")
	case input.Category.RequiresDeadline() && input.Deadline == nil:
		fields.add("deadline", "is required for intimations")
	}
	if current != nil && current.Status == models.TaskStatusOverdue {
		switch {
		case input.Deadline == nil:
			fields.add("deadline", "cannot be removed from an overdue task")
		case !s.now().After(*input.Deadline):
			fields.add("deadline", "must stay in the past while the task is overdue")
		}
	}
	fields.required("act_number", input.ActNumber)
	fields.required("violator_name", input.ViolatorName)
	fields.required("violation_description", input.ViolationDescription)

	if input.FileID != nil {
		if _, err := s.fileRepo.FindByID(*input.FileID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find file: %w", err)
			}
			fields.add("file_id", "does not reference an existing file")
		}
	}

	return fields.err()
}

func applyTaskInput(task *models.Task, input TaskInput) {
	task.Date = *input.Date
	task.Category = input.Category
	task.ActNumber = strings.TrimSpace(input.ActNumber)
	task.Deadline = input.Deadline
	task.ViolatorName = strings.TrimSpace(input.ViolatorName)
	task.ViolatorDNI = strings.TrimSpace(input.ViolatorDNI)
	task.ViolatorAddress = strings.TrimSpace(input.ViolatorAddress)
	task.ViolationDescription = input.ViolationDescription
	task.Notes = input.Notes
	task.FileID = input.FileID
}

// CreateTask validates input and stores a new pending task
func (s *TaskService) CreateTask(input TaskInput, creatorID uint64) (*TaskRecord, error) {
	if err := s.validate(input, nil); err != nil {
		return nil, err
	}

	task := &models.Task{
		Status:    models.TaskStatusPending,
		CreatorID: creatorID,
	}
	applyTaskInput(task, input)

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(task.ID)
}

// UpdateTask replaces the editable fields of a task. Status is untouched, so
// an overdue task cannot lose its passed deadline.
func (s *TaskService) UpdateTask(taskID uint64, input TaskInput) (*TaskRecord, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(input, task); err != nil {
		return nil, err
	}
	applyTaskInput(task, input)

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID)
}

// GetTask returns a joined task with its history
func (s *TaskService) GetTask(taskID uint64) (*TaskRecord, error) {
	detail, err := s.taskRepo.FindDetailed(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	history, err := s.taskRepo.History(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task history: %w", err)
	}

	return s.record(*detail, history, s.now()), nil
}

func (s *TaskService) record(detail models.TaskDetail, history []models.TaskStatusChange, now time.Time) *TaskRecord {
	if history == nil {
		history = []models.TaskStatusChange{}
	}
	return &TaskRecord{
		TaskDetail: detail,
		History:    history,
		State:      lifecycle.EvaluateTask(detail.Task, now, s.lookahead),
	}
}

// ListTasks returns joined tasks matching the filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]TaskRecord, int64, error) {
	details, total, err := s.taskRepo.List(repository.TaskFilter{
		Statuses:   input.Statuses,
		Categories: input.Categories,
		DateFrom:   input.DateFrom,
		DateTo:     input.DateTo,
		FileID:     input.FileID,
		SortBy:     input.SortBy,
		Descending: input.Descending,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	ids := make([]uint64, len(details))
	for i, detail := range details {
		ids[i] = detail.ID
	}
	histories, err := s.taskRepo.HistoryFor(ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load task history: %w", err)
	}

	now := s.now()
	records := make([]TaskRecord, len(details))
	for i, detail := range details {
		records[i] = *s.record(detail, histories[detail.ID], now)
	}
	return records, total, nil
}

// ListFileTasks lists the tasks linked to a file
func (s *TaskService) ListFileTasks(fileID uint64) ([]TaskRecord, error) {
	if _, err := s.fileRepo.FindByID(fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}

	records, _, err := s.ListTasks(ListTasksInput{FileID: &fileID, SortBy: repository.SortByDate})
	return records, err
}

// DeleteTask hard deletes a task and its history
func (s *TaskService) DeleteTask(taskID uint64) error {
	if err := s.taskRepo.Delete(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// History returns the audit list of a task in chronological order
func (s *TaskService) History(taskID uint64) ([]models.TaskStatusChange, error) {
	if _, err := s.findTask(taskID); err != nil {
		return nil, err
	}

	history, err := s.taskRepo.History(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task history: %w", err)
	}
	return history, nil
}

// ChangeStatus validates a transition and records it. The stored status is
// only written if it still equals the status read here; otherwise the call
// fails with a conflict TransitionError and nothing is appended.
func (s *TaskService) ChangeStatus(input ChangeStatusInput) (*models.TaskStatusChange, error) {
	return s.changeStatus(input, s.now())
}

func (s *TaskService) changeStatus(input ChangeStatusInput, now time.Time) (*models.TaskStatusChange, error) {
	task, err := s.findTask(input.TaskID)
	if err != nil {
		return nil, err
	}

	from := task.Status
	if input.Expected != nil && *input.Expected != from {
		return nil, &TransitionError{
			From:     *input.Expected,
			To:       input.To,
			Reason:   fmt.Sprintf("task is %s", from),
			Conflict: true,
		}
	}

	err = s.policy.Check(lifecycle.Request{
		From:     from,
		To:       input.To,
		Deadline: task.Deadline,
		Note:     input.Note,
		System:   input.Actor.System,
		Now:      now,
	})
	if err != nil {
		var violation *lifecycle.Violation
		if errors.As(err, &violation) {
			return nil, &TransitionError{From: violation.From, To: violation.To, Reason: violation.Reason}
		}
		return nil, err
	}

	change := &models.TaskStatusChange{
		TaskID:     task.ID,
		FromStatus: from,
		ToStatus:   input.To,
		Note:       strings.TrimSpace(input.Note),
		Actor:      input.Actor.Name,
		ActorID:    input.Actor.ID,
		ChangedAt:  now,
	}

	if err := s.taskRepo.UpdateStatus(change); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, &TransitionError{
				From:     from,
				To:       input.To,
				Reason:   "task status was changed by another request",
				Conflict: true,
			}
		}
		return nil, fmt.Errorf("failed to change task status: %w", err)
	}

	return change, nil
}

// SweepOverdue marks every pending task whose deadline is strictly before now
// as overdue, acting as the system actor. Tasks changed concurrently are
// skipped. It returns how many tasks were moved.
func (s *TaskService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.taskRepo.PendingPastDeadline(now)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue tasks: %w", err)
	}

	moved := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return moved, err
		}

		pending := models.TaskStatusPending
		_, err := s.changeStatus(ChangeStatusInput{
			TaskID:   task.ID,
			To:       models.TaskStatusOverdue,
			Note:     constants.OverdueSweepNote,
			Actor:    SystemActor,
			Expected: &pending,
		}, now)
		switch {
		case err == nil:
			moved++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrTaskNotFound):
			s.log.Debug("overdue sweep skipped task", zap.Uint64("task_id", task.ID), zap.Error(err))
		default:
			return moved, err
		}
	}

	if moved > 0 {
		s.log.Info("overdue sweep completed", zap.Int("moved", moved))
	}
	return moved, nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
