// Package scheduler runs the periodic computer passes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one periodic pass. It returns the number of records written.
type Job interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler runs each registered job on its own interval. A job never
// overlaps with itself.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	timeout   time.Duration
}

// New creates a Scheduler. timeout bounds a single pass.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, logger: logger, timeout: timeout}
}

// Add schedules job every interval, starting immediately once started.
func (s *Scheduler) Add(name string, interval time.Duration, job Job) error {
	_, err := s.scheduler.Every(interval).Tag(name).Do(func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled pass failed", "job", name, "written", n, "error", err)
		return
	}
	s.logger.Debug("scheduled pass completed", "job", name, "written", n)
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler. Running passes finish on their own.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return s.scheduler.Len()
}
