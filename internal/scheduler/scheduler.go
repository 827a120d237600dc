// Package scheduler wires the cron trigger for the ingestion pipeline.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// Trigger is what the scheduler fires; satisfied by *pipeline.Runner.
type Trigger interface {
	TryRun(ctx context.Context) (pipeline.RunReport, error)
}

// Scheduler runs the pipeline on a cron spec. The timer and any manual
// trigger race for the same guard; the loser is a silent no-op.
type Scheduler struct {
	cron   *cron.Cron
	runner Trigger
	spec   string
	logger *zap.Logger
}

// New creates a Scheduler for the given cron spec.
func New(runner Trigger, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the job and starts the timer.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		report, err := s.runner.TryRun(ctx)
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			s.logger.Info("scheduled run skipped, pipeline busy")
		case err != nil:
			s.logger.Error("scheduled run failed", zap.Error(err))
		default:
			s.logger.Info("scheduled run finished",
				zap.String("run_id", report.ID),
				zap.Int("stored", report.Counters.Stored),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the timer and waits for a running cron callback to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron stopped")
}
