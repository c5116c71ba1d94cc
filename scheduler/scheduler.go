package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"

	"github.com/goliatone/go-gamification/pkg/types"
)

var (
	// ErrUnknownJob indicates no job is registered under the name.
	ErrUnknownJob = errors.New("go-gamification: unknown job")
	// ErrJobRunning indicates the guard refused the run because another is in flight.
	ErrJobRunning = errors.New("go-gamification: job already running")
	// ErrJobDisabled indicates the job feature key resolved to disabled.
	ErrJobDisabled = errors.New("go-gamification: job disabled")
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Schedule Schedule
	Run      func(ctx context.Context) error
	// Timeout bounds one run. Zero means no limit.
	Timeout time.Duration
}

// Config wires a Scheduler.
type Config struct {
	Guard       Guard
	FeatureGate featuregate.FeatureGate
	Clock       types.Clock
	Logger      types.Logger
}

// Scheduler drives registered jobs from timer loops.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]Job
	started bool
	wg      sync.WaitGroup

	guard  Guard
	gate   featuregate.FeatureGate
	clock  types.Clock
	logger types.Logger
}

// New constructs a scheduler. A nil guard falls back to MemoryGuard.
func New(cfg Config) *Scheduler {
	guard := cfg.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Scheduler{
		jobs:   make(map[string]Job),
		guard:  guard,
		gate:   cfg.FeatureGate,
		clock:  clock,
		logger: logger,
	}
}

// Register adds a job. Names must be unique and jobs cannot be added once
// the scheduler started.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return errors.New("scheduler: job name required")
	}
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %s has no run func", job.Name)
	}
	if job.Schedule == nil {
		return fmt.Errorf("scheduler: job %s has no schedule", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler: already started")
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %s already registered", job.Name)
	}
	s.jobs[job.Name] = job
	return nil
}

// Jobs lists registered job names in lexical order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches one timer loop per job and returns. Loops stop when ctx is
// done; Wait blocks until they exit.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	for _, job := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Wait blocks until every loop started by Start has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunNow executes a job immediately, honoring its gate and guard.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	for {
		now := s.clock.Now()
		wait := job.Schedule.Next(now).Sub(now)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		err := s.run(ctx, job)
		switch {
		case err == nil, errors.Is(err, ErrJobRunning), errors.Is(err, ErrJobDisabled):
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return
		default:
			s.logger.Error("scheduled job failed", err, "job", job.Name)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	enabled, err := jobEnabled(ctx, s.gate, job.Name)
	if err != nil {
		return fmt.Errorf("scheduler: resolve gate for %s: %w", job.Name, err)
	}
	if !enabled {
		s.logger.Debug("scheduled job disabled", "job", job.Name)
		return ErrJobDisabled
	}

	release, acquired, err := s.guard.Acquire(ctx, job.Name)
	if err != nil {
		return fmt.Errorf("scheduler: acquire guard for %s: %w", job.Name, err)
	}
	if !acquired {
		s.logger.Warn("skipping overlapping job run", "job", job.Name)
		return ErrJobRunning
	}
	defer release()

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	started := s.clock.Now()
	err = safeRun(runCtx, job.Run)
	s.logger.Info("scheduled job finished", "job", job.Name, "duration", s.clock.Now().Sub(started), "failed", err != nil)
	return err
}

func safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: job panic: %v", r)
		}
	}()
	return run(ctx)
}
