// Package scheduler runs named jobs on fixed intervals until the context
// passed to Start is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus is the outcome of the last run of a job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusOK      JobStatus = "ok"
	StatusFailed  JobStatus = "failed"
)

// Job is a periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once immediately instead of after one interval.
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

type jobState struct {
	Job
	mu        sync.Mutex
	status    JobStatus
	lastError string
	lastRunAt time.Time
	nextRunAt time.Time
}

// JobInfo is a snapshot of a registered job.
type JobInfo struct {
	Name      string     `json:"name"`
	Status    JobStatus  `json:"status"`
	LastError string     `json:"last_error,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt time.Time  `json:"next_run_at"`
}

// Scheduler owns a set of jobs. Register before Start.
type Scheduler struct {
	log  *zap.Logger
	mu   sync.RWMutex
	jobs map[string]*jobState
	wg   sync.WaitGroup
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:  log,
		jobs: make(map[string]*jobState),
	}
}

// Register adds job. It fails on a duplicate name or a non-positive interval.
func (s *Scheduler) Register(job Job) error {
	if job.Interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", job.Name)
	}
	if job.Fn == nil {
		return fmt.Errorf("job %q: missing function", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	s.jobs[job.Name] = &jobState{Job: job, status: StatusIdle}
	return nil
}

// Start launches one goroutine per job. They exit when ctx is cancelled;
// Wait blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, js := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, js)
	}
}

// Wait blocks until every job loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, js *jobState) {
	defer s.wg.Done()

	first := js.Interval
	if js.RunOnStart {
		first = 0
	}
	js.mu.Lock()
	js.nextRunAt = time.Now().Add(first)
	js.mu.Unlock()

	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.execute(ctx, js)
			js.mu.Lock()
			js.nextRunAt = time.Now().Add(js.Interval)
			js.mu.Unlock()
			timer.Reset(js.Interval)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.status = StatusRunning
	js.mu.Unlock()

	started := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.lastRunAt = started
	if err != nil {
		js.status = StatusFailed
		js.lastError = err.Error()
	} else {
		js.status = StatusOK
		js.lastError = ""
	}
	js.mu.Unlock()

	if err != nil {
		s.log.Error("job failed", zap.String("job", js.Name), zap.Error(err))
		return
	}
	s.log.Debug("job finished", zap.String("job", js.Name), zap.Duration("took", time.Since(started)))
}

// Run triggers a job now and waits for it. A run already in progress makes
// this a no-op.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	s.execute(ctx, js)
	return nil
}

// List returns a snapshot of every job ordered by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]JobInfo, 0, len(s.jobs))
	for _, js := range s.jobs {
		js.mu.Lock()
		info := JobInfo{
			Name:      js.Name,
			Status:    js.status,
			LastError: js.lastError,
			NextRunAt: js.nextRunAt,
		}
		if !js.lastRunAt.IsZero() {
			last := js.lastRunAt
			info.LastRunAt = &last
		}
		js.mu.Unlock()
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
