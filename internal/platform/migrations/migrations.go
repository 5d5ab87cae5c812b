// Package migrations applies the database schema of the marketplace core.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are applied in order. Each statement is idempotent so Apply can
// run on every boot.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS marketplace_applications (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		identity JSONB NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		requested BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		version INTEGER NOT NULL DEFAULT 0,
		api JSONB NOT NULL,
		access JSONB NOT NULL,
		display JSONB,
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_marketplace_applications_company
		ON marketplace_applications (company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_marketplace_applications_published
		ON marketplace_applications (published) WHERE NOT deleted`,
	`CREATE TABLE IF NOT EXISTS legacy_applications (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL DEFAULT '',
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		name TEXT NOT NULL DEFAULT '',
		simple_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		public BOOLEAN NOT NULL DEFAULT FALSE,
		team_validation BOOLEAN NOT NULL DEFAULT FALSE,
		available_to_public BOOLEAN NOT NULL DEFAULT FALSE,
		api_events_url TEXT NOT NULL DEFAULT '',
		api_allowed_ips TEXT NOT NULL DEFAULT '',
		api_private_key TEXT NOT NULL DEFAULT '',
		capabilities TEXT NOT NULL DEFAULT '',
		privileges TEXT NOT NULL DEFAULT '',
		hooks TEXT NOT NULL DEFAULT '',
		display TEXT NOT NULL DEFAULT '',
		identity JSONB,
		publication JSONB,
		stats JSONB,
		api JSONB,
		access JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_legacy_applications_group
		ON legacy_applications (group_id)`,
}

// Apply executes all schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}
	return nil
}
