package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"news_ingest/internal/domain"
)

// Cycler runs one ingestion cycle.
type Cycler interface {
	Cycle(ctx context.Context) (*domain.CycleStats, error)
}

type Scheduler struct {
	cycler   Cycler
	schedule string
	logger   *slog.Logger
}

// NewScheduler validates schedule (standard cron or "@every 6h" style descriptors).
func NewScheduler(cycler Cycler, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		cycler:   cycler,
		schedule: schedule,
		logger:   logger.With("component", "scheduler"),
	}, nil
}

// Start runs a cycle immediately and then on every schedule tick until ctx
// is done. A tick that fires while a cycle is still running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.runCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule cycle: %w", err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule)

	s.runCycle(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.cycler.Cycle(ctx); err != nil {
		s.logger.Error("cycle failed", "error", err)
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
