package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	tasks []dto.TaskDTO
}

func (s *fakeSource) Tasks() []dto.TaskDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.TaskDTO, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func day(d int, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func task(id uint64, category models.TaskCategory, status models.TaskStatus, deadline *time.Time) dto.TaskDTO {
	return dto.TaskDTO{
		ID:           id,
		Category:     category,
		Status:       status,
		Deadline:     deadline,
		ActNumber:    "A-1",
		ViolatorName: "Juan",
	}
}

func ptr(t time.Time) *time.Time { return &t }

func newTestDispatcher(source TaskSource, notifier Notifier) (*Dispatcher, *Inbox) {
	inbox := NewInbox()
	return NewDispatcher(source, inbox, DispatcherOptions{
		Location: time.UTC,
		Notifier: notifier,
	}), inbox
}

func TestDispatcher_OncePerTaskPerDay(t *testing.T) {
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(10, 0))),
	}}
	d, inbox := newTestDispatcher(source, nil)

	added := d.Check(day(8, 9))
	require.Len(t, added, 1)
	assert.Equal(t, KindWarning, added[0].Kind)
	require.NotNil(t, added[0].RelatedID)
	assert.Equal(t, uint64(1), *added[0].RelatedID)
	assert.Equal(t, RelatedTask, added[0].RelatedKind)

	assert.Empty(t, d.Check(day(8, 15)))
	assert.Len(t, inbox.List(), 1)

	assert.Len(t, d.Check(day(9, 9)), 1)
	assert.Len(t, inbox.List(), 2)
}

func TestDispatcher_States(t *testing.T) {
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(20, 0))),
		task(2, models.CategoryInfraction, models.TaskStatusOverdue, ptr(day(1, 0))),
		task(3, models.CategoryInfraction, models.TaskStatusPending, ptr(day(4, 0))),
		task(4, models.CategoryClosure, models.TaskStatusCompleted, ptr(day(4, 0))),
		task(5, models.CategoryClosure, models.TaskStatusPending, nil),
	}}
	d, _ := newTestDispatcher(source, nil)

	added := d.Check(day(5, 9))
	require.Len(t, added, 2)
	for _, n := range added {
		assert.Equal(t, KindError, n.Kind)
	}
	assert.ElementsMatch(t, []uint64{2, 3}, []uint64{*added[0].RelatedID, *added[1].RelatedID})
}

func TestDispatcher_DeadlineEqualToNowIsNearDeadline(t *testing.T) {
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(10, 12))),
	}}
	d, _ := newTestDispatcher(source, nil)

	added := d.Check(day(10, 12))
	require.Len(t, added, 1)
	assert.Equal(t, KindWarning, added[0].Kind)
}

func TestDispatcher_Preferences(t *testing.T) {
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(10, 0))),
		task(2, models.CategoryInfraction, models.TaskStatusPending, ptr(day(10, 0))),
	}}
	d, inbox := newTestDispatcher(source, nil)

	off := false
	inbox.UpdatePreferences(PreferencesUpdate{IntimationDeadlines: &off})
	added := d.Check(day(9, 0))
	require.Len(t, added, 1)
	assert.Equal(t, uint64(2), *added[0].RelatedID)

	inbox.UpdatePreferences(PreferencesUpdate{TaskReminders: &off})
	assert.Empty(t, d.Check(day(10, 0)))

	on := true
	inbox.UpdatePreferences(PreferencesUpdate{TaskReminders: &on, IntimationDeadlines: &on})
	assert.Len(t, d.Check(day(10, 0)), 2)
}

func TestDispatcher_NativeIsBestEffort(t *testing.T) {
	var calls atomic.Int32
	failing := NotifierFunc(func(context.Context, Notification) error {
		calls.Add(1)
		return errors.New("push service down")
	})
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(10, 0))),
	}}
	d, inbox := newTestDispatcher(source, failing)

	require.Len(t, d.Check(day(9, 0)), 1)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, inbox.UnreadCount())

	off := false
	inbox.UpdatePreferences(PreferencesUpdate{Native: &off})
	require.Len(t, d.Check(day(10, 0)), 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatcher_StartStop(t *testing.T) {
	source := &fakeSource{tasks: []dto.TaskDTO{
		task(1, models.CategoryIntimation, models.TaskStatusPending, ptr(day(10, 0))),
	}}
	inbox := NewInbox()
	d := NewDispatcher(source, inbox, DispatcherOptions{
		Location: time.UTC,
		Interval: 5 * time.Millisecond,
		Now:      func() time.Time { return day(9, 0) },
	})

	d.Start(context.Background())
	d.Start(context.Background())
	require.Eventually(t, func() bool { return inbox.UnreadCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, d.Running())

	d.Stop()
	assert.False(t, d.Running())
	d.Stop()

	// Same day: later ticks never duplicate the notification.
	assert.Len(t, inbox.List(), 1)
}

func TestDispatcher_StopsWithContext(t *testing.T) {
	d, _ := newTestDispatcher(&fakeSource{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	require.True(t, d.Running())

	cancel()
	require.Eventually(t, func() bool { return !d.Running() }, time.Second, time.Millisecond)

	d.Start(context.Background())
	assert.True(t, d.Running())
	d.Stop()
}
