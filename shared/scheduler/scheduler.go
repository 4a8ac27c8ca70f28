package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"edu-gate/shared/monitoring"
)

// Job is a background maintenance task run on a cron schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on six-field (seconds first) cron schedules.
type Scheduler struct {
	monitor *monitoring.Monitor
	cron    *cron.Cron
}

func New(monitor *monitoring.Monitor) *Scheduler {
	return &Scheduler{
		monitor: monitor,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Add registers job under spec. Runs use ctx so they stop with the process.
func (s *Scheduler) Add(ctx context.Context, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		_ = s.RunOnce(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
	}
	logrus.WithFields(logrus.Fields{"job": job.Name(), "schedule": spec}).Info("Scheduled job")
	return nil
}

// Start runs the scheduler until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}()
}

// RunOnce runs job immediately and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if s.monitor != nil {
		s.monitor.RecordJob(job.Name(), err, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("%s run failed: %w", job.Name(), err)
	}
	return nil
}
