// Package storage persists extraction runs and their components in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to cache_metadata when the schema is created.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the component store.
// Uses a transaction so schema creation succeeds or fails as a whole.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"extraction_runs", createExtractionRunsTable},
		{"components", createComponentsTable},
		{"cache_metadata", createCacheMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO cache_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)",
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a new database.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='cache_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check cache_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM cache_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in cache_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// UpdateSchemaVersion sets or updates the schema version in cache_metadata.
func UpdateSchemaVersion(db *sql.DB, version string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO cache_metadata (key, value, updated_at)
		VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, version, now); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

const createExtractionRunsTable = `
CREATE TABLE IF NOT EXISTS extraction_runs (
    run_id TEXT PRIMARY KEY,
    root_dir TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    files_discovered INTEGER NOT NULL DEFAULT 0,
    component_count INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0
)`

const createComponentsTable = `
CREATE TABLE IF NOT EXISTS components (
    component_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    type TEXT NOT NULL,
    name TEXT NOT NULL,
    domain TEXT NOT NULL,
    file_path TEXT NOT NULL,
    line INTEGER NOT NULL,
    metadata TEXT,
    FOREIGN KEY (run_id) REFERENCES extraction_runs(run_id) ON DELETE CASCADE
)`

const createCacheMetadataTable = `
CREATE TABLE IF NOT EXISTS cache_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON extraction_runs(generated_at)",
		"CREATE INDEX IF NOT EXISTS idx_components_run ON components(run_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_components_type ON components(run_id, type)",
		"CREATE INDEX IF NOT EXISTS idx_components_domain ON components(run_id, domain)",
		"CREATE INDEX IF NOT EXISTS idx_components_file ON components(file_path)",
	}
}
