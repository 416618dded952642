package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/view"
)

// Store caches tasks, files and activities. Reads return copies; writes go
// to the API first and touch the cache only when the server accepted them.
type Store struct {
	api *Client

	mu          sync.RWMutex
	tasks       []dto.TaskDTO
	files       []dto.FileDTO
	activities  []dto.ActivityDTO
	refreshedAt time.Time
}

func NewStore(api *Client) *Store {
	return &Store{api: api}
}

// Refresh replaces the whole cache. On error the previous cache is kept.
func (s *Store) Refresh(ctx context.Context) error {
	tasks, err := s.api.AllTasks(ctx)
	if err != nil {
		return err
	}
	files, err := s.api.AllFiles(ctx)
	if err != nil {
		return err
	}
	activities, err := s.api.AllActivities(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.files = files
	s.activities = activities
	s.refreshedAt = time.Now()
	return nil
}

// RefreshedAt is the time of the last successful Refresh.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

func (s *Store) Tasks() []dto.TaskDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.TaskDTO, len(s.tasks))
	for i, task := range s.tasks {
		out[i] = cloneTask(task)
	}
	return out
}

func (s *Store) Task(id uint64) (dto.TaskDTO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.tasks {
		if task.ID == id {
			return cloneTask(task), true
		}
	}
	return dto.TaskDTO{}, false
}

func (s *Store) Files() []dto.FileDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.FileDTO, len(s.files))
	for i, file := range s.files {
		out[i] = file
		out[i].ExitDate = cloneTime(file.ExitDate)
	}
	return out
}

func (s *Store) Activities() []dto.ActivityDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.ActivityDTO, len(s.activities))
	copy(out, s.activities)
	return out
}

// TaskView is the filtered and ordered projection of the current snapshot.
func (s *Store) TaskView(filter view.TaskFilter, order view.TaskSort) []dto.TaskDTO {
	return view.ApplyTasks(s.Tasks(), filter, order)
}

func (s *Store) FileView(filter view.FileFilter) []dto.FileDTO {
	return view.FilterFiles(s.Files(), filter)
}

func (s *Store) ActivityView(query string) []dto.ActivityDTO {
	return view.SearchActivities(s.Activities(), query)
}

func (s *Store) AddTask(ctx context.Context, req dto.TaskRequest) (dto.TaskDTO, error) {
	task, err := s.api.CreateTask(ctx, req)
	if err != nil {
		return dto.TaskDTO{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, *task)
	return cloneTask(*task), nil
}

func (s *Store) EditTask(ctx context.Context, id uint64, req dto.TaskRequest) (dto.TaskDTO, error) {
	task, err := s.api.UpdateTask(ctx, id, req)
	if err != nil {
		return dto.TaskDTO{}, s.dropIfGone(err, func() { s.removeTask(id) })
	}

	s.putTask(*task)
	return cloneTask(*task), nil
}

func (s *Store) DeleteTask(ctx context.Context, id uint64) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return s.dropIfGone(err, func() { s.removeTask(id) })
	}
	s.removeTask(id)
	return nil
}

// ChangeTaskStatus goes through the server's status recorder. A refused
// transition leaves the cached task untouched.
func (s *Store) ChangeTaskStatus(ctx context.Context, id uint64, to models.TaskStatus, note string, expected *models.TaskStatus) (dto.TaskDTO, error) {
	task, err := s.api.ChangeTaskStatus(ctx, id, dto.StatusChangeRequest{
		Status:         to,
		Note:           note,
		ExpectedStatus: expected,
	})
	if err != nil {
		return dto.TaskDTO{}, s.dropIfGone(err, func() { s.removeTask(id) })
	}

	s.putTask(*task)
	return cloneTask(*task), nil
}

func (s *Store) AddFile(ctx context.Context, req dto.FileRequest) (dto.FileDTO, error) {
	file, err := s.api.CreateFile(ctx, req)
	if err != nil {
		return dto.FileDTO{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, *file)
	return *file, nil
}

func (s *Store) EditFile(ctx context.Context, id uint64, req dto.FileRequest) (dto.FileDTO, error) {
	file, err := s.api.UpdateFile(ctx, id, req)
	if err != nil {
		return dto.FileDTO{}, s.dropIfGone(err, func() { s.removeFile(id) })
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.files {
		if s.files[i].ID == id {
			s.files[i] = *file
			replaced = true
		}
	}
	if !replaced {
		s.files = append(s.files, *file)
	}
	for i := range s.tasks {
		if s.tasks[i].FileID != nil && *s.tasks[i].FileID == id {
			s.tasks[i].FileCaption = file.Caption
		}
	}
	return *file, nil
}

// DeleteFile also unlinks the cached tasks, as the server does.
func (s *Store) DeleteFile(ctx context.Context, id uint64) error {
	if err := s.api.DeleteFile(ctx, id); err != nil {
		return s.dropIfGone(err, func() { s.removeFile(id) })
	}
	s.removeFile(id)
	return nil
}

func (s *Store) AddActivity(ctx context.Context, req dto.ActivityRequest) (dto.ActivityDTO, error) {
	activity, err := s.api.CreateActivity(ctx, req)
	if err != nil {
		return dto.ActivityDTO{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, *activity)
	return *activity, nil
}

func (s *Store) EditActivity(ctx context.Context, id uint64, req dto.ActivityRequest) (dto.ActivityDTO, error) {
	activity, err := s.api.UpdateActivity(ctx, id, req)
	if err != nil {
		return dto.ActivityDTO{}, s.dropIfGone(err, func() { s.removeActivity(id) })
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.activities {
		if s.activities[i].ID == id {
			s.activities[i] = *activity
			return *activity, nil
		}
	}
	s.activities = append(s.activities, *activity)
	return *activity, nil
}

func (s *Store) DeleteActivity(ctx context.Context, id uint64) error {
	if err := s.api.DeleteActivity(ctx, id); err != nil {
		return s.dropIfGone(err, func() { s.removeActivity(id) })
	}
	s.removeActivity(id)
	return nil
}

// dropIfGone evicts a cached entity the server no longer knows and returns
// err unchanged.
func (s *Store) dropIfGone(err error, evict func()) error {
	if errors.Is(err, ErrNotFound) {
		evict()
	}
	return err
}

func (s *Store) putTask(task dto.TaskDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
	s.tasks = append(s.tasks, task)
}

func (s *Store) removeTask(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
}

func (s *Store) removeFile(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.files[:0]
	for _, file := range s.files {
		if file.ID != id {
			kept = append(kept, file)
		}
	}
	s.files = kept

	for i := range s.tasks {
		if s.tasks[i].FileID != nil && *s.tasks[i].FileID == id {
			s.tasks[i].FileID = nil
			s.tasks[i].FileCaption = ""
		}
	}
}

func (s *Store) removeActivity(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.activities[:0]
	for _, activity := range s.activities {
		if activity.ID != id {
			kept = append(kept, activity)
		}
	}
	s.activities = kept
}

func cloneTask(task dto.TaskDTO) dto.TaskDTO {
	task.Deadline = cloneTime(task.Deadline)
	if task.FileID != nil {
		id := *task.FileID
		task.FileID = &id
	}
	history := make([]dto.StatusChangeDTO, len(task.StatusHistory))
	for i, change := range task.StatusHistory {
		history[i] = change
		if change.ActorID != nil {
			id := *change.ActorID
			history[i].ActorID = &id
		}
	}
	task.StatusHistory = history
	return task
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
