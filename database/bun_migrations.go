package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type migration struct {
	version string
	name    string
	up      func(context.Context, *bun.DB) error
}

var migrations = []migration{
	{"001", "create_documents", init001CreateDocumentsTable},
	{"002", "create_entries", init002CreateEntriesTable},
	{"003", "create_jobs", init003CreateJobsTable},
}

// isPostgres reports whether db speaks the postgres dialect
func isPostgres(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}

// serialKey is the auto-incrementing primary key column for the dialect
func serialKey(db *bun.DB) string {
	if isPostgres(db) {
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// runMigrations applies any migrations not yet recorded in bun_schema_migrations
func runMigrations(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS bun_schema_migrations (
			%s,
			version TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, serialKey(db)))
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	type AppliedMigration struct {
		bun.BaseModel `bun:"table:bun_schema_migrations"`
		Version       string `bun:"version"`
	}
	var applied []AppliedMigration
	err = db.NewSelect().
		Model(&applied).
		Column("version").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.Version] = true
	}

	for _, m := range migrations {
		if appliedMap[m.version] {
			continue
		}

		Logger.Info("Running migration", "version", m.version, "name", m.name)
		if err := m.up(ctx, db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}

		_, err = db.NewInsert().
			Model(&AppliedMigration{Version: m.version}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.version, err)
		}
	}

	Logger.Info("All migrations completed successfully")
	return nil
}

func createIndexes(ctx context.Context, db *bun.DB, indexes []string) error {
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Migration 001: documents
func init001CreateDocumentsTable(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS documents (
			%s,
			ulid TEXT NOT NULL UNIQUE,
			filename TEXT NOT NULL,
			path TEXT NOT NULL,
			hash TEXT NOT NULL,
			total_pages INTEGER NOT NULL DEFAULT 0,
			analysis_status TEXT NOT NULL DEFAULT 'pending',
			uploaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, serialKey(db)))
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	return createIndexes(ctx, db, []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash)",
		"CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_documents_analysis_status ON documents(analysis_status)",
	})
}

// Migration 002: bibliography entries, one row per entry in document order
func init002CreateEntriesTable(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS entries (
			%s,
			document_ulid TEXT NOT NULL REFERENCES documents(ulid) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			text_status TEXT NOT NULL DEFAULT 'pending',
			analysis TEXT NOT NULL DEFAULT '',
			analysis_status TEXT NOT NULL DEFAULT 'pending',
			analysis_found TEXT NOT NULL DEFAULT '',
			UNIQUE (document_ulid, seq)
		)
	`, serialKey(db)))
	if err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	return createIndexes(ctx, db, []string{
		"CREATE INDEX IF NOT EXISTS idx_entries_document ON entries(document_ulid)",
	})
}

// Migration 003: jobs
func init003CreateJobsTable(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT DEFAULT 'pending',
			progress INTEGER DEFAULT 0,
			current_step TEXT DEFAULT '',
			total_steps INTEGER DEFAULT 0,
			message TEXT DEFAULT '',
			error TEXT,
			result TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at TIMESTAMP,
			completed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at) WHERE completed_at IS NOT NULL",
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			// Partial indexes might not be supported in all SQLite versions
			Logger.Warn("Could not create index (might not be supported)", "error", err)
		}
	}
	return nil
}
