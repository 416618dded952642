package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"go.uber.org/zap"
)

const nativeTimeout = 10 * time.Second

// TaskSource provides the tasks a dispatcher checks.
type TaskSource interface {
	Tasks() []dto.TaskDTO
}

type DispatcherOptions struct {
	Lookahead time.Duration
	Interval  time.Duration
	Location  *time.Location
	Notifier  Notifier
	Logger    *zap.Logger
	Now       func() time.Time
}

// Dispatcher raises at most one notification per task and calendar day for
// tasks that are near their deadline or overdue.
type Dispatcher struct {
	source    TaskSource
	inbox     *Inbox
	notifier  Notifier
	lookahead time.Duration
	interval  time.Duration
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	notified map[string]string
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewDispatcher(source TaskSource, inbox *Inbox, opts DispatcherOptions) *Dispatcher {
	if opts.Lookahead <= 0 {
		opts.Lookahead = lifecycle.DefaultLookahead
	}
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultDispatchInterval
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		source:    source,
		inbox:     inbox,
		notifier:  opts.Notifier,
		lookahead: opts.Lookahead,
		interval:  opts.Interval,
		loc:       opts.Location,
		log:       opts.Logger,
		now:       opts.Now,
		notified:  make(map[string]string),
	}
}

// Check evaluates every task at now and returns the notifications it added.
func (d *Dispatcher) Check(now time.Time) []Notification {
	day := now.In(d.loc).Format(constants.DateLayout)
	prefs := d.inbox.Preferences()

	d.mu.Lock()
	for key, notifiedDay := range d.notified {
		if notifiedDay != day {
			delete(d.notified, key)
		}
	}

	var pending []Notification
	for _, task := range d.source.Tasks() {
		if !allowed(prefs, task.Category) {
			continue
		}
		state := lifecycle.Evaluate(task.Status, task.Deadline, now, d.lookahead)
		if !state.NeedsAttention() {
			continue
		}

		key := fmt.Sprintf("%d:%s", task.ID, day)
		if _, seen := d.notified[key]; seen {
			continue
		}
		d.notified[key] = day
		pending = append(pending, deadlineNotification(task, state, now, d.loc))
	}
	d.mu.Unlock()

	added := make([]Notification, 0, len(pending))
	for _, n := range pending {
		stored := d.inbox.Add(n)
		added = append(added, stored)
		if prefs.Native {
			d.sendNative(stored)
		}
	}
	return added
}

func allowed(prefs Preferences, category models.TaskCategory) bool {
	if !prefs.TaskReminders {
		return false
	}
	if category.RequiresDeadline() && !prefs.IntimationDeadlines {
		return false
	}
	return true
}

func deadlineNotification(task dto.TaskDTO, state lifecycle.DeadlineState, now time.Time, loc *time.Location) Notification {
	id := task.ID
	n := Notification{
		CreatedAt:   now,
		RelatedID:   &id,
		RelatedKind: RelatedTask,
	}
	due := task.Deadline.In(loc).Format(constants.DateLayout)

	if state == lifecycle.StateOverdue {
		n.Kind = KindError
		n.Title = "Deadline passed"
		n.Message = fmt.Sprintf("Act %s (%s) was due on %s", task.ActNumber, task.ViolatorName, due)
	} else {
		n.Kind = KindWarning
		n.Title = "Deadline approaching"
		n.Message = fmt.Sprintf("Act %s (%s) is due on %s", task.ActNumber, task.ViolatorName, due)
	}
	return n
}

// sendNative is best effort: failures are logged and the in-app notification
// stays.
func (d *Dispatcher) sendNative(n Notification) {
	if d.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), nativeTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.log.Warn("native notification failed", zap.String("notification_id", n.ID), zap.Error(err))
	}
}

// Start runs a check immediately and then once per interval on a single
// goroutine until ctx is done or Stop is called. Starting a running
// dispatcher does nothing.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	go d.loop(ctx, stopCh, doneCh)
}

func (d *Dispatcher) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer func() {
		d.mu.Lock()
		if d.doneCh == doneCh {
			d.running = false
		}
		d.mu.Unlock()
		close(doneCh)
	}()

	d.Check(d.now())

	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-timer.C:
			d.Check(d.now())
			timer.Reset(d.interval)
		}
	}
}

// Stop ends the loop and waits for it, so no timer outlives the call.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Running reports whether the loop is active.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
