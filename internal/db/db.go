// Package db is the local health data store: a sqlite database of activity
// samples and read grants that serves as the health data provider.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// IsAvailable reports whether the store can be queried.
func (db *DB) IsAvailable() bool {
	if db == nil || db.DB == nil {
		return false
	}
	return db.PingContext(context.Background()) == nil
}

// configure sets up database pragmas. busy_timeout doubles as the query
// timeout for readers racing the importer.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createSamplesTable(); err != nil {
		return err
	}
	if err := db.createAuthorizationsTable(); err != nil {
		return err
	}
	return db.createImportsTable()
}

func (db *DB) createSamplesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS samples (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER))
	);
	CREATE INDEX IF NOT EXISTS idx_samples_kind_start ON samples(kind, start_ms);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createAuthorizationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS authorizations (
		kind TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		updated_ms INTEGER NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createImportsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS imports (
		path TEXT PRIMARY KEY,
		digest TEXT NOT NULL,
		samples INTEGER NOT NULL DEFAULT 0,
		imported_ms INTEGER NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
