package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// Dates are stored as YYYY-MM-DD text so range filters compare the same way
// on both dialects.
func schema(d string) []string {
	ts := "TIMESTAMP"
	if d == dialect.Postgres {
		ts = "TIMESTAMPTZ"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS shifts (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT 'IMG',
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS shifts_date_idx ON shifts (date)`,
		`CREATE TABLE IF NOT EXISTS import_jobs (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			format TEXT NOT NULL,
			method TEXT,
			status TEXT NOT NULL,
			started_at ` + ts + ` NOT NULL,
			finished_at ` + ts + `,
			shifts_found INTEGER NOT NULL DEFAULT 0,
			period TEXT,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS import_jobs_started_idx ON import_jobs (started_at)`,
	}
}

// Migrate creates the tables when missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema(d.Dialect) {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
