// Package scheduler is a named registry of cron jobs that can be inspected,
// paused, resumed and triggered at runtime.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound = errors.New("scheduler: job not found")
	ErrJobExists   = errors.New("scheduler: job already registered")
	ErrJobBusy     = errors.New("scheduler: job is already running")
)

// JobFunc does one run of a job. Its result is kept for the status view.
type JobFunc func(ctx context.Context) (any, error)

type Job struct {
	Name     string
	Schedule string
	Run      JobFunc
}

// JobStatus is a snapshot of one job
type JobStatus struct {
	Name        string
	Schedule    string
	IsRunning   bool
	IsBusy      bool
	NextRun     time.Time
	PreviousRun time.Time
	LastResult  any
	LastError   string
}

type entry struct {
	job      Job
	schedule cron.Schedule
	id       cron.EntryID
	active   bool
	busy     bool
	prev     time.Time
	result   any
	lastErr  string
}

type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]*entry
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// New creates a scheduler. timeout bounds a single run; zero means none.
func New(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger.Sugar()}))),
		jobs:    make(map[string]*entry),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Register parses the schedule and activates the job
func (s *Scheduler) Register(job Job) error {
	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("scheduler: job %s: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, job.Name)
	}
	e := &entry{job: job, schedule: schedule}
	s.jobs[job.Name] = e
	s.activate(e)

	s.logger.Info("Cron job registered",
		zap.String("job", job.Name),
		zap.String("schedule", job.Schedule),
	)
	return nil
}

// activate schedules e. Callers hold mu.
func (s *Scheduler) activate(e *entry) {
	name := e.job.Name
	e.id = s.cron.Schedule(e.schedule, cron.FuncJob(func() {
		if _, err := s.run(context.Background(), name); err != nil && !errors.Is(err, ErrJobBusy) {
			s.logger.Warn("Cron job failed", zap.String("job", name), zap.Error(err))
		}
	}))
	e.active = true
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.List())))
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

// run executes the job now unless a run is already in progress
func (s *Scheduler) run(ctx context.Context, name string) (JobStatus, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if e.busy {
		s.mu.Unlock()
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobBusy, name)
	}
	e.busy = true
	started := s.now()
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.invoke(ctx, e.job)

	s.mu.Lock()
	e.busy = false
	e.prev = started
	e.result = result
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
	status := s.snapshot(e)
	s.mu.Unlock()

	s.logger.Debug("Cron job finished",
		zap.String("job", name),
		zap.Duration("duration", s.now().Sub(started)),
		zap.Bool("success", err == nil),
	)
	return status, err
}

// invoke turns a panicking job into an error so busy is always released
func (s *Scheduler) invoke(ctx context.Context, job Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

// snapshot reads e. Callers hold mu.
func (s *Scheduler) snapshot(e *entry) JobStatus {
	status := JobStatus{
		Name:        e.job.Name,
		Schedule:    e.job.Schedule,
		IsRunning:   e.active,
		IsBusy:      e.busy,
		PreviousRun: e.prev,
		LastResult:  e.result,
		LastError:   e.lastErr,
	}
	if e.active {
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			status.NextRun = next
		} else {
			// the cron loop fills Next once started
			status.NextRun = e.schedule.Next(s.now())
		}
	}
	return status
}

func (s *Scheduler) Status(name string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.snapshot(e), nil
}

// List returns every job sorted by name
func (s *Scheduler) List() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, s.snapshot(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StopJob removes the job from the schedule. Stopping a stopped job is a no-op.
func (s *Scheduler) StopJob(name string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if e.active {
		s.cron.Remove(e.id)
		e.active = false
		s.logger.Info("Cron job stopped", zap.String("job", name))
	}
	return s.snapshot(e), nil
}

// StartJob puts a stopped job back on its schedule
func (s *Scheduler) StartJob(name string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !e.active {
		s.activate(e)
		s.logger.Info("Cron job started", zap.String("job", name))
	}
	return s.snapshot(e), nil
}

// Trigger runs the job immediately and waits for it
func (s *Scheduler) Trigger(ctx context.Context, name string) (JobStatus, error) {
	s.logger.Info("Cron job triggered manually", zap.String("job", name))
	return s.run(ctx, name)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
