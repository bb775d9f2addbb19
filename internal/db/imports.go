package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportRecord is the last successful import of a file.
type ImportRecord struct {
	Path       string
	Digest     string
	Samples    int
	ImportedAt time.Time
}

// RecordImport remembers that path was imported with the given content digest.
func (db *DB) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO imports (path, digest, samples, imported_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			digest = excluded.digest,
			samples = excluded.samples,
			imported_ms = excluded.imported_ms`,
		rec.Path, rec.Digest, rec.Samples, rec.ImportedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record import of %s: %w", rec.Path, err)
	}
	return nil
}

// ImportedDigest returns the digest stored for path, or "" when it was never
// imported.
func (db *DB) ImportedDigest(ctx context.Context, path string) (string, error) {
	var digest string
	err := db.QueryRowContext(ctx, `SELECT digest FROM imports WHERE path = ?`, path).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read import of %s: %w", path, err)
	}
	return digest, nil
}

// RecentImports lists the latest imports, newest first.
func (db *DB) RecentImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT path, digest, samples, imported_ms
		FROM imports
		ORDER BY imported_ms DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ImportRecord
	for rows.Next() {
		var (
			rec ImportRecord
			ms  int64
		)
		if err := rows.Scan(&rec.Path, &rec.Digest, &rec.Samples, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		rec.ImportedAt = time.UnixMilli(ms)
		records = append(records, rec)
	}
	return records, rows.Err()
}
