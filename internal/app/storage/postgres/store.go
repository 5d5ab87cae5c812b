// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
)

const defaultPageLimit = 100

// Store implements the storage interfaces on a PostgreSQL database.
type Store struct {
	db *sqlx.DB
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.LegacyApplicationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// applicationRow is the flat table shape; nested sections are JSON columns.
type applicationRow struct {
	ID        string       `db:"id"`
	CompanyID string       `db:"company_id"`
	IsDefault bool         `db:"is_default"`
	Identity  []byte       `db:"identity"`
	Published bool         `db:"published"`
	Requested bool         `db:"requested"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
	Version   int          `db:"version"`
	API       []byte       `db:"api"`
	Access    []byte       `db:"access"`
	Display   []byte       `db:"display"`
	Deleted   bool         `db:"deleted"`
}

func toRow(app application.Application) (applicationRow, error) {
	identityJSON, err := json.Marshal(app.Identity)
	if err != nil {
		return applicationRow{}, fmt.Errorf("encode identity: %w", err)
	}
	apiJSON, err := json.Marshal(app.API)
	if err != nil {
		return applicationRow{}, fmt.Errorf("encode api: %w", err)
	}
	accessJSON, err := json.Marshal(app.Access)
	if err != nil {
		return applicationRow{}, fmt.Errorf("encode access: %w", err)
	}
	var displayJSON []byte
	if app.Display != nil {
		displayJSON, err = json.Marshal(app.Display)
		if err != nil {
			return applicationRow{}, fmt.Errorf("encode display: %w", err)
		}
	}
	return applicationRow{
		ID:        app.ID,
		CompanyID: app.CompanyID,
		IsDefault: app.IsDefault,
		Identity:  identityJSON,
		Published: app.Publication.Published,
		Requested: app.Publication.Requested,
		CreatedAt: sql.NullTime{Time: app.Stats.CreatedAt, Valid: !app.Stats.CreatedAt.IsZero()},
		UpdatedAt: sql.NullTime{Time: app.Stats.UpdatedAt, Valid: !app.Stats.UpdatedAt.IsZero()},
		Version:   app.Stats.Version,
		API:       apiJSON,
		Access:    accessJSON,
		Display:   displayJSON,
	}, nil
}

func fromRow(row applicationRow) (application.Application, error) {
	app := application.Application{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		IsDefault: row.IsDefault,
		Publication: application.Publication{
			Published: row.Published,
			Requested: row.Requested,
		},
		Stats: application.Stats{
			Version: row.Version,
		},
	}
	if row.CreatedAt.Valid {
		app.Stats.CreatedAt = row.CreatedAt.Time.UTC()
	}
	if row.UpdatedAt.Valid {
		app.Stats.UpdatedAt = row.UpdatedAt.Time.UTC()
	}
	if err := json.Unmarshal(row.Identity, &app.Identity); err != nil {
		return application.Application{}, fmt.Errorf("decode identity of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.API, &app.API); err != nil {
		return application.Application{}, fmt.Errorf("decode api of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Access, &app.Access); err != nil {
		return application.Application{}, fmt.Errorf("decode access of %s: %w", row.ID, err)
	}
	if len(row.Display) > 0 {
		var display application.Display
		if err := json.Unmarshal(row.Display, &display); err != nil {
			return application.Application{}, fmt.Errorf("decode display of %s: %w", row.ID, err)
		}
		app.Display = &display
	}
	return app, nil
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	row, err := toRow(app)
	if err != nil {
		return application.Application{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO marketplace_applications
			(id, company_id, is_default, identity, published, requested,
			 created_at, updated_at, version, api, access, display, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE)
	`, row.ID, row.CompanyID, row.IsDefault, row.Identity, row.Published, row.Requested,
		row.CreatedAt, row.UpdatedAt, row.Version, row.API, row.Access, row.Display)
	if err != nil {
		return application.Application{}, err
	}
	return app, nil
}

func (s *Store) UpdateApplication(ctx context.Context, app application.Application, expectedVersion int) (application.Application, error) {
	row, err := toRow(app)
	if err != nil {
		return application.Application{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE marketplace_applications
		SET identity = $1, published = $2, requested = $3, updated_at = $4,
			version = $5, api = $6, access = $7, display = $8
		WHERE id = $9 AND version = $10 AND NOT deleted
	`, row.Identity, row.Published, row.Requested, row.UpdatedAt,
		row.Version, row.API, row.Access, row.Display, row.ID, expectedVersion)
	if err != nil {
		return application.Application{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return application.Application{}, err
	}
	if affected == 0 {
		if _, err := s.GetApplication(ctx, app.ID); err != nil {
			return application.Application{}, err
		}
		return application.Application{}, storage.ErrVersionConflict
	}
	return app, nil
}

func (s *Store) SaveApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	row, err := toRow(app)
	if err != nil {
		return application.Application{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO marketplace_applications
			(id, company_id, is_default, identity, published, requested,
			 created_at, updated_at, version, api, access, display, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE)
		ON CONFLICT (id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			is_default = EXCLUDED.is_default,
			identity = EXCLUDED.identity,
			published = EXCLUDED.published,
			requested = EXCLUDED.requested,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version,
			api = EXCLUDED.api,
			access = EXCLUDED.access,
			display = EXCLUDED.display,
			deleted = FALSE
	`, row.ID, row.CompanyID, row.IsDefault, row.Identity, row.Published, row.Requested,
		row.CreatedAt, row.UpdatedAt, row.Version, row.API, row.Access, row.Display)
	if err != nil {
		return application.Application{}, err
	}
	return app, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (application.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, company_id, is_default, identity, published, requested,
			created_at, updated_at, version, api, access, display, deleted
		FROM marketplace_applications
		WHERE id = $1 AND NOT deleted
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, storage.ErrNotFound
	}
	if err != nil {
		return application.Application{}, err
	}
	return fromRow(row)
}

func (s *Store) ListApplications(ctx context.Context, page storage.Page, search string) ([]application.Application, string, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, company_id, is_default, identity, published, requested,
			created_at, updated_at, version, api, access, display, deleted
		FROM marketplace_applications
		WHERE NOT deleted
			AND id > $1
			AND ($2 = '' OR identity->>'name' ILIKE '%' || $2 || '%'
				OR identity->>'code' ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3
	`, page.Token, strings.TrimSpace(search), limit+1)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = rows[len(rows)-1].ID
	}
	apps := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		app, err := fromRow(row)
		if err != nil {
			return nil, "", err
		}
		apps = append(apps, app)
	}
	return apps, next, nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE marketplace_applications SET deleted = TRUE
		WHERE id = $1 AND NOT deleted
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LegacyApplicationStore implementation ----------------------------------------

type legacyRow struct {
	ID                  string `db:"id"`
	GroupID             string `db:"group_id"`
	IsDefault           bool   `db:"is_default"`
	Name                string `db:"name"`
	SimpleName          string `db:"simple_name"`
	Description         string `db:"description"`
	Icon                string `db:"icon"`
	Public              bool   `db:"public"`
	TeamValidation      bool   `db:"team_validation"`
	IsAvailableToPublic bool   `db:"available_to_public"`
	APIEventsURL        string `db:"api_events_url"`
	APIAllowedIPs       string `db:"api_allowed_ips"`
	APIPrivateKey       string `db:"api_private_key"`
	Capabilities        string `db:"capabilities"`
	Privileges          string `db:"privileges"`
	Hooks               string `db:"hooks"`
	Display             string `db:"display"`
	Identity            []byte `db:"identity"`
	Publication         []byte `db:"publication"`
	Stats               []byte `db:"stats"`
	API                 []byte `db:"api"`
	Access              []byte `db:"access"`
}

func fromLegacyRow(row legacyRow) (legacy.Application, error) {
	rec := legacy.Application{
		ID:                  row.ID,
		GroupID:             row.GroupID,
		IsDefault:           row.IsDefault,
		Name:                row.Name,
		SimpleName:          row.SimpleName,
		Description:         row.Description,
		Icon:                row.Icon,
		Public:              row.Public,
		TeamValidation:      row.TeamValidation,
		IsAvailableToPublic: row.IsAvailableToPublic,
		APIEventsURL:        row.APIEventsURL,
		APIAllowedIPs:       row.APIAllowedIPs,
		APIPrivateKey:       row.APIPrivateKey,
		Capabilities:        row.Capabilities,
		Privileges:          row.Privileges,
		Hooks:               row.Hooks,
		Display:             row.Display,
	}
	if len(row.Identity) > 0 {
		rec.Identity = &application.Identity{}
		if err := json.Unmarshal(row.Identity, rec.Identity); err != nil {
			return legacy.Application{}, fmt.Errorf("decode legacy identity of %s: %w", row.ID, err)
		}
	}
	if len(row.Publication) > 0 {
		rec.Publication = &application.Publication{}
		if err := json.Unmarshal(row.Publication, rec.Publication); err != nil {
			return legacy.Application{}, fmt.Errorf("decode legacy publication of %s: %w", row.ID, err)
		}
	}
	if len(row.Stats) > 0 {
		rec.Stats = &application.Stats{}
		if err := json.Unmarshal(row.Stats, rec.Stats); err != nil {
			return legacy.Application{}, fmt.Errorf("decode legacy stats of %s: %w", row.ID, err)
		}
	}
	if len(row.API) > 0 {
		rec.API = &application.API{}
		if err := json.Unmarshal(row.API, rec.API); err != nil {
			return legacy.Application{}, fmt.Errorf("decode legacy api of %s: %w", row.ID, err)
		}
	}
	if len(row.Access) > 0 {
		rec.Access = &application.Access{}
		if err := json.Unmarshal(row.Access, rec.Access); err != nil {
			return legacy.Application{}, fmt.Errorf("decode legacy access of %s: %w", row.ID, err)
		}
	}
	return rec, nil
}

func (s *Store) ListLegacyApplications(ctx context.Context, page storage.Page) ([]legacy.Application, string, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var rows []legacyRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, group_id, is_default, name, simple_name, description, icon,
			public, team_validation, available_to_public,
			api_events_url, api_allowed_ips, api_private_key,
			capabilities, privileges, hooks, display,
			identity, publication, stats, api, access
		FROM legacy_applications
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, page.Token, limit+1)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = rows[len(rows)-1].ID
	}
	records := make([]legacy.Application, 0, len(rows))
	for _, row := range rows {
		rec, err := fromLegacyRow(row)
		if err != nil {
			return nil, "", err
		}
		records = append(records, rec)
	}
	return records, next, nil
}
