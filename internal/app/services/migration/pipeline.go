// Package migration drives the batch import of legacy application records
// into the structured schema.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
	"github.com/collabsuite/marketplace_layer/internal/app/importer"
	"github.com/collabsuite/marketplace_layer/internal/app/metrics"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

const defaultPageSize = 100

// Policy configures how the pipeline treats existing records and corrupt
// rows.
type Policy struct {
	// Replace overwrites already-migrated records instead of skipping them.
	Replace bool
	// ContinueOnError skips records that fail to transform or persist and
	// reports them, instead of aborting the whole batch.
	ContinueOnError bool
	// PageSize bounds each legacy store read.
	PageSize int
}

// DefaultPolicy matches the reviewed behavior: always replace, abort the
// batch on the first failure.
func DefaultPolicy() Policy {
	return Policy{Replace: true, PageSize: defaultPageSize}
}

// Failure records one legacy row the pipeline could not migrate.
type Failure struct {
	ID    string
	Cause string
}

// Report summarises a pipeline run. A run that aborts mid-batch still
// reports everything migrated up to the failure.
type Report struct {
	Migrated []string
	Skipped  []string
	Failed   []Failure
}

// Pipeline drains the legacy store page by page, transforming and upserting
// each record. Pages are fetched strictly sequentially.
type Pipeline struct {
	legacyStore storage.LegacyApplicationStore
	apps        storage.ApplicationStore
	policy      Policy
	log         *logger.Logger
	now         func() time.Time
}

// New constructs a migration pipeline.
func New(legacyStore storage.LegacyApplicationStore, apps storage.ApplicationStore, policy Policy, log *logger.Logger) *Pipeline {
	if policy.PageSize <= 0 {
		policy.PageSize = defaultPageSize
	}
	if log == nil {
		log = logger.NewDefault("migration")
	}
	return &Pipeline{
		legacyStore: legacyStore,
		apps:        apps,
		policy:      policy,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// MigrateAll drains the legacy store until the cursor is exhausted. The
// operation is not transactional: an aborted run leaves earlier records
// migrated, and re-running is safe because importing re-derives the same
// output from the same legacy input.
func (p *Pipeline) MigrateAll(ctx context.Context) (Report, error) {
	var report Report
	started := time.Now()
	token := ""

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		records, next, err := p.legacyStore.ListLegacyApplications(ctx, storage.Page{Limit: p.policy.PageSize, Token: token})
		if err != nil {
			return report, fmt.Errorf("list legacy applications: %w", err)
		}

		for _, rec := range records {
			if err := p.migrateOne(ctx, rec, &report); err != nil {
				p.log.WithError(err).
					WithField("legacy_id", rec.ID).
					Error("legacy application migration failed")
				metrics.RecordMigrationRecord("failed")
				report.Failed = append(report.Failed, Failure{ID: rec.ID, Cause: err.Error()})
				if !p.policy.ContinueOnError {
					metrics.RecordMigrationRun(time.Since(started), false)
					return report, fmt.Errorf("migrate application %s: %w", rec.ID, err)
				}
			}
		}

		if next == "" {
			break
		}
		token = next
	}

	metrics.RecordMigrationRun(time.Since(started), len(report.Failed) == 0)
	p.log.WithField("migrated", len(report.Migrated)).
		WithField("skipped", len(report.Skipped)).
		WithField("failed", len(report.Failed)).
		Info("migration run finished")
	return report, nil
}

func (p *Pipeline) migrateOne(ctx context.Context, rec legacy.Application, report *Report) error {
	_, err := p.apps.GetApplication(ctx, rec.ID)
	switch {
	case err == nil:
		if !p.policy.Replace {
			report.Skipped = append(report.Skipped, rec.ID)
			metrics.RecordMigrationRecord("skipped")
			return nil
		}
	case errors.Is(err, storage.ErrNotFound):
		// fresh record
	default:
		return fmt.Errorf("look up structured record: %w", err)
	}

	app, err := importer.Import(rec, p.now())
	if err != nil {
		return err
	}
	if _, err := p.apps.SaveApplication(ctx, app); err != nil {
		return fmt.Errorf("save structured record: %w", err)
	}

	report.Migrated = append(report.Migrated, rec.ID)
	metrics.RecordMigrationRecord("migrated")
	return nil
}
