package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler wraps gocron for interval jobs. All background work (the periodic
// sync cycle, future maintenance tasks) registers here rather than spawning
// its own timers, so jobs can be listed and rescheduled in one place.
type Scheduler struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job // name → job
	logger    *zap.Logger
}

// New creates a stopped scheduler; call Start once jobs are registered.
func New(logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		logger:    logger,
	}, nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

// AddJob registers a named interval job. The name must be unique.
func (s *Scheduler) AddJob(name string, every time.Duration, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("scheduled job already exists: %s", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled job %s: %w", name, err)
	}

	s.jobs[name] = j
	s.logger.Info("Scheduled job added", zap.String("name", name), zap.Duration("every", every))
	return nil
}

// RemoveJob stops and removes a named job. No-op if the job doesn't exist.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(j.ID()); err != nil {
		s.logger.Warn("Failed to remove scheduled job", zap.String("name", name), zap.Error(err))
	}
	delete(s.jobs, name)
	s.logger.Info("Scheduled job removed", zap.String("name", name))
}

// Reschedule replaces a named job with a new interval. If the job doesn't
// exist, it is created.
func (s *Scheduler) Reschedule(name string, every time.Duration, task func()) error {
	s.RemoveJob(name)
	return s.AddJob(name, every, task)
}

// NextRun returns the next scheduled execution of a named job, or the zero
// time if the job is unknown.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	nr, err := j.NextRun()
	if err != nil {
		return time.Time{}
	}
	return nr
}
