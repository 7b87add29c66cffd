// Package migrations holds the schema of the four directory tables as an
// in-memory sql-migrate source.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/dalilfazara/dalil/pkg/logger"
)

// TableName records applied migrations
const TableName = "dalil_migrations"

const dialect = "postgres"

// Source returns every migration in apply order
func Source() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "0001_workers",
				Up: []string{
					`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
					`CREATE TABLE IF NOT EXISTS workers (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						name TEXT NOT NULL,
						job TEXT NOT NULL,
						location TEXT NOT NULL,
						phone VARCHAR(11) NOT NULL CHECK (phone ~ '^01[0-9]{9}$'),
						phone_other VARCHAR(11) CHECK (phone_other IS NULL OR phone_other ~ '^01[0-9]{9}$'),
						profile_image TEXT NOT NULL,
						work_image TEXT NOT NULL,
						is_verified BOOLEAN NOT NULL DEFAULT FALSE,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					)`,
					`CREATE INDEX IF NOT EXISTS idx_workers_created_at ON workers (created_at DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_workers_job ON workers (job)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS workers`,
				},
			},
			{
				Id: "0002_tracking",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS visits (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						visitor_id VARCHAR(64) NOT NULL,
						page_url TEXT NOT NULL DEFAULT '/',
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					)`,
					`CREATE INDEX IF NOT EXISTS idx_visits_created_at ON visits (created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits (visitor_id)`,
					`CREATE TABLE IF NOT EXISTS active_visitors (
						visitor_id VARCHAR(64) PRIMARY KEY,
						last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						page_url TEXT NOT NULL DEFAULT '/'
					)`,
					`CREATE INDEX IF NOT EXISTS idx_active_visitors_last_seen ON active_visitors (last_seen)`,
					`CREATE TABLE IF NOT EXISTS contact_clicks (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						visitor_id VARCHAR(64) NOT NULL,
						worker_id UUID REFERENCES workers (id) ON DELETE SET NULL,
						worker_name TEXT NOT NULL DEFAULT '',
						worker_phone VARCHAR(32) NOT NULL DEFAULT '',
						worker_job TEXT,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					)`,
					`CREATE INDEX IF NOT EXISTS idx_contact_clicks_created_at ON contact_clicks (created_at DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_contact_clicks_worker_id ON contact_clicks (worker_id)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS contact_clicks`,
					`DROP TABLE IF EXISTS active_visitors`,
					`DROP TABLE IF EXISTS visits`,
				},
			},
		},
	}
}

// Migrator applies Source to a Postgres database
type Migrator struct {
	db     *sql.DB
	set    migrate.MigrationSet
	source migrate.MigrationSource
	logger logger.Logger
}

// NewMigrator creates a Migrator bookkeeping in TableName
func NewMigrator(db *sql.DB, logger logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		set:    migrate.MigrationSet{TableName: TableName},
		source: Source(),
		logger: logger,
	}
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) (int, error) {
	n, err := m.set.ExecContext(ctx, m.db, dialect, m.source, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.WithField("applied", n).Info("Database migrations applied")
	return n, nil
}

// Down rolls back at most steps migrations. steps <= 0 rolls back one.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	n, err := m.set.ExecMaxContext(ctx, m.db, dialect, m.source, migrate.Down, steps)
	if err != nil {
		return n, fmt.Errorf("failed to roll back migrations: %w", err)
	}
	m.logger.WithField("rolled_back", n).Info("Database migrations rolled back")
	return n, nil
}

// Pending lists the ids of migrations not applied yet
func (m *Migrator) Pending() ([]string, error) {
	planned, _, err := m.set.PlanMigration(m.db, dialect, m.source, migrate.Up, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to plan migrations: %w", err)
	}
	ids := make([]string, len(planned))
	for i, p := range planned {
		ids[i] = p.Id
	}
	return ids, nil
}
