package store

import (
	"context"
	"fmt"
	"time"
)

// migration is one additive schema step. Steps are never edited once shipped;
// schema changes append a new version.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "contacts, tags and links",
		sql: `
	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		true_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		jobTitle TEXT NOT NULL DEFAULT '',
		imageAvailable INTEGER NOT NULL DEFAULT 0 CHECK (imageAvailable IN (0, 1))
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS contact_tags (
		contact_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (contact_id, tag_id),
		FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_contact_tags_tag ON contact_tags(tag_id);
	CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);
	`,
	},
	{
		version: 2,
		name:    "import run history",
		sql: `
	CREATE TABLE IF NOT EXISTS import_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		scanned INTEGER NOT NULL DEFAULT 0,
		new_contacts INTEGER NOT NULL DEFAULT 0,
		edited_contacts INTEGER NOT NULL DEFAULT 0,
		batches INTEGER NOT NULL DEFAULT 0,
		batches_failed INTEGER NOT NULL DEFAULT 0,
		tags_created INTEGER NOT NULL DEFAULT 0,
		links_created INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);
	`,
	},
}

// Migrate brings the schema up to date.
//
// Migrations are additive: existing tables and rows are never dropped. Each
// pending version is applied and recorded in schema_migrations inside a single
// transaction, so calling Migrate on every start is safe and cheap.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// LatestSchemaVersion is the version Migrate brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}
