// Package storage defines the persistence boundary of the marketplace core.
package storage

import (
	"context"
	"errors"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a conditional update loses against
	// a concurrent write. Callers may re-read and retry.
	ErrVersionConflict = errors.New("record version conflict")
)

// Page describes a pagination window. An empty token starts from the
// beginning; stores return an empty next token when the cursor is exhausted.
type Page struct {
	Limit int
	Token string
}

// ApplicationStore persists structured application records. Stores write the
// given record verbatim: all invariants on stats and credentials are owned by
// the lifecycle service.
type ApplicationStore interface {
	// CreateApplication inserts a new record, assigning an id when absent.
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	// UpdateApplication replaces a record only while the stored version still
	// equals expectedVersion; otherwise it fails with ErrVersionConflict.
	UpdateApplication(ctx context.Context, app application.Application, expectedVersion int) (application.Application, error)
	// SaveApplication writes a record unconditionally, inserting or
	// replacing. Migration upserts go through this path.
	SaveApplication(ctx context.Context, app application.Application) (application.Application, error)
	GetApplication(ctx context.Context, id string) (application.Application, error)
	// ListApplications returns a page of records, optionally filtered by a
	// case-insensitive search over identity name and code.
	ListApplications(ctx context.Context, page Page, search string) ([]application.Application, string, error)
	// DeleteApplication soft-deletes a record.
	DeleteApplication(ctx context.Context, id string) error
}

// LegacyApplicationStore reads the pre-migration flat records.
type LegacyApplicationStore interface {
	ListLegacyApplications(ctx context.Context, page Page) ([]legacy.Application, string, error)
}
