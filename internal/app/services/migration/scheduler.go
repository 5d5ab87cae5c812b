package migration

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

// Scheduler re-runs the migration pipeline on a cron schedule so records
// trickling into the legacy store keep getting picked up.
type Scheduler struct {
	pipeline *Pipeline
	schedule string
	cron     *cron.Cron
	log      *logger.Logger
}

// NewScheduler constructs a scheduler. The schedule uses the standard cron
// syntax, including descriptors such as "@hourly".
func NewScheduler(pipeline *Pipeline, schedule string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("migration-scheduler")
	}
	return &Scheduler{
		pipeline: pipeline,
		schedule: schedule,
		cron:     cron.New(),
		log:      log,
	}
}

// Name identifies the scheduler to the lifecycle manager.
func (s *Scheduler) Name() string { return "migration-scheduler" }

// Start validates the schedule and begins periodic runs.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		report, err := s.pipeline.MigrateAll(context.Background())
		if err != nil {
			s.log.WithError(err).Warn("scheduled migration run aborted")
			return
		}
		s.log.WithField("migrated", len(report.Migrated)).
			WithField("skipped", len(report.Skipped)).
			Info("scheduled migration run finished")
	})
	if err != nil {
		return fmt.Errorf("register migration schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish or the context
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
