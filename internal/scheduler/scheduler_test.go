package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validates(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Register(Job{Name: "bad", Interval: 0, Fn: noop}))
	assert.Error(t, s.Register(Job{Name: "nofn", Interval: time.Second}))
	require.NoError(t, s.Register(Job{Name: "ok", Interval: time.Second, Fn: noop}))
	assert.Error(t, s.Register(Job{Name: "ok", Interval: time.Second, Fn: noop}))
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Register(Job{
		Name:       "tick",
		Interval:   5 * time.Millisecond,
		RunOnStart: true,
		Fn: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	s.Wait()

	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestRun_RecordsOutcome(t *testing.T) {
	s := New(nil)
	fail := true
	require.NoError(t, s.Register(Job{
		Name:     "sweep",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			if fail {
				return errors.New("database unavailable")
			}
			return nil
		},
	}))

	require.NoError(t, s.Run(context.Background(), "sweep"))
	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, StatusFailed, items[0].Status)
	assert.Equal(t, "database unavailable", items[0].LastError)
	require.NotNil(t, items[0].LastRunAt)

	fail = false
	require.NoError(t, s.Run(context.Background(), "sweep"))
	items = s.List()
	assert.Equal(t, StatusOK, items[0].Status)
	assert.Empty(t, items[0].LastError)

	assert.Error(t, s.Run(context.Background(), "missing"))
}
