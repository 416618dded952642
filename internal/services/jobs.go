package services

import (
	"context"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/lock"
	"github.com/yukikurage/municipal-tracker/internal/scheduler"
	"go.uber.org/zap"
)

const overdueSweepLockKey = "overdue-sweep"

// OverdueSweepJob wraps SweepOverdue in a scheduler job. When another
// instance holds the sweep lock the cycle is skipped.
func OverdueSweepJob(tasks *TaskService, locker lock.Locker, interval time.Duration, log *zap.Logger) scheduler.Job {
	if locker == nil {
		locker = lock.Local{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return scheduler.Job{
		Name:       "overdue-sweep",
		Interval:   interval,
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			release, ok, err := locker.Acquire(ctx, overdueSweepLockKey, interval)
			if err != nil {
				return err
			}
			if !ok {
				log.Debug("overdue sweep held by another instance")
				return nil
			}
			defer release()

			_, err = tasks.SweepOverdue(ctx, time.Now())
			return err
		},
	}
}
