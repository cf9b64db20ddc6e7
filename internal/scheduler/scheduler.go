package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
)

var ErrDuplicateJob = errors.New("job already registered")

type job struct {
	name    string
	spec    string
	run     func(ctx context.Context)
	running atomic.Bool
}

// Scheduler runs named jobs on cron specs in one time zone. A job never
// overlaps itself: a tick that fires while the previous run is still going is
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	logger  *slog.Logger
	metrics *Metrics

	mu   sync.Mutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func New(loc *time.Location, metrics *Metrics, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.NewWithLocation(loc),
		loc:     loc,
		logger:  logger,
		metrics: metrics,
		jobs:    make(map[string]*job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a job. Specs have six fields, seconds first.
func (s *Scheduler) Register(name, spec string, run func(ctx context.Context)) error {
	if _, err := cron.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, spec: spec, run: run}
	if err := s.cron.AddFunc(spec, func() { s.execute(s.ctx, j) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = j

	s.logger.Info("job registered", "job", name, "spec", spec, "timezone", s.loc.String())
	return nil
}

func (s *Scheduler) Start() {
	s.once.Do(func() {
		s.cron.Start()
		s.logger.Info("scheduler started", "jobs", len(s.jobs))
	})
}

// Trigger runs a registered job now on the caller's goroutine. The job's
// context ends with ctx or with Shutdown, whichever comes first. It reports
// false for unknown jobs and for runs skipped because the job is busy.
func (s *Scheduler) Trigger(ctx context.Context, name string) bool {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.execute(runCtx, j)
}

func (s *Scheduler) execute(ctx context.Context, j *job) (ran bool) {
	if !j.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping tick", "job", j.name)
		s.metrics.recordRun(j.name, outcomeSkipped)
		return false
	}
	s.wg.Add(1)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", j.name, "panic", r)
			s.metrics.recordRun(j.name, outcomePanic)
		}
		j.running.Store(false)
		s.wg.Done()
	}()

	s.logger.Info("job started", "job", j.name)
	j.run(ctx)
	s.metrics.recordRun(j.name, outcomeOK)
	s.logger.Info("job finished", "job", j.name, "duration", time.Since(started).String())
	return true
}

// Shutdown stops new ticks, cancels running jobs and waits for them.
func (s *Scheduler) Shutdown() {
	s.logger.Info("shutting down scheduler")
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler shutdown complete")
}
