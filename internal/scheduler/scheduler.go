// Package scheduler runs scans on a fixed interval. Runs never overlap: the
// watermark and the forward-only progression rule are not safe under
// concurrent scans, so a run still in flight causes the next tick to be
// skipped rather than queued.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a cron runner with non-overlapping job semantics
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a new scheduler
func New(logger *zap.Logger) *Scheduler {
	cronLogger := &zapCronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		logger: logger,
	}
}

// Every registers a job to run on a fixed minute interval
func (s *Scheduler) Every(minutes int, job func()) error {
	if minutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", minutes)
	}
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", minutes), job)
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// zapCronLogger adapts zap to the cron.Logger interface
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
