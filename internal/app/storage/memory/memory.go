// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
)

const defaultPageLimit = 100

// Store keeps applications and legacy records in maps, with insertion order
// preserved for deterministic pagination.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	applications map[string]application.Application
	appOrder     []string
	legacyRecs   map[string]legacy.Application
	legacyOrder  []string
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.LegacyApplicationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		applications: make(map[string]application.Application),
		legacyRecs:   make(map[string]legacy.Application),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = s.nextIDLocked()
	} else if _, exists := s.applications[app.ID]; exists {
		return application.Application{}, fmt.Errorf("application %s already exists", app.ID)
	}

	s.applications[app.ID] = app.Clone()
	s.appOrder = append(s.appOrder, app.ID)
	return app.Clone(), nil
}

func (s *Store) UpdateApplication(_ context.Context, app application.Application, expectedVersion int) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.applications[app.ID]
	if !ok {
		return application.Application{}, storage.ErrNotFound
	}
	if original.Stats.Version != expectedVersion {
		return application.Application{}, storage.ErrVersionConflict
	}

	s.applications[app.ID] = app.Clone()
	return app.Clone(), nil
}

func (s *Store) SaveApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = s.nextIDLocked()
	}
	if _, exists := s.applications[app.ID]; !exists {
		s.appOrder = append(s.appOrder, app.ID)
	}
	s.applications[app.ID] = app.Clone()
	return app.Clone(), nil
}

func (s *Store) GetApplication(_ context.Context, id string) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, storage.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *Store) ListApplications(_ context.Context, page storage.Page, search string) ([]application.Application, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matching := make([]application.Application, 0)
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, id := range s.appOrder {
		app, ok := s.applications[id]
		if !ok {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(app.Identity.Name), needle) &&
			!strings.Contains(strings.ToLower(app.Identity.Code), needle) {
			continue
		}
		matching = append(matching, app)
	}
	return paginate(matching, page, func(app application.Application) application.Application { return app.Clone() })
}

func (s *Store) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.applications, id)
	for i, existing := range s.appOrder {
		if existing == id {
			s.appOrder = append(s.appOrder[:i], s.appOrder[i+1:]...)
			break
		}
	}
	return nil
}

// LegacyApplicationStore implementation ----------------------------------------

// SeedLegacy loads a legacy record, replacing any previous record with the
// same id. Tests and fixtures use it to populate the migration source.
func (s *Store) SeedLegacy(rec legacy.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.legacyRecs[rec.ID]; !exists {
		s.legacyOrder = append(s.legacyOrder, rec.ID)
	}
	s.legacyRecs[rec.ID] = rec
}

func (s *Store) ListLegacyApplications(_ context.Context, page storage.Page) ([]legacy.Application, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]legacy.Application, 0, len(s.legacyOrder))
	for _, id := range s.legacyOrder {
		records = append(records, s.legacyRecs[id])
	}
	return paginate(records, page, func(rec legacy.Application) legacy.Application { return rec })
}

// paginate slices an ordered result set by numeric offset token.
func paginate[T any](all []T, page storage.Page, clone func(T) T) ([]T, string, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := 0
	if page.Token != "" {
		parsed, err := strconv.Atoi(page.Token)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid page token %q", page.Token)
		}
		offset = parsed
	}
	if offset >= len(all) {
		return []T{}, "", nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	result := make([]T, 0, end-offset)
	for _, item := range all[offset:end] {
		result = append(result, clone(item))
	}

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return result, next, nil
}
