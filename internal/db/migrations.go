package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; index+1 is the schema version they bring
// the database to.
var migrations = []string{
	// 1: early importers stored dietary calories and spelled-out units verbatim.
	`UPDATE samples SET unit = 'kcal' WHERE unit IN ('Cal', 'kilocalorie', 'kilocalories');
	 UPDATE samples SET unit = 'min' WHERE unit IN ('minute', 'minutes', 'mins');
	 UPDATE samples SET unit = 'count' WHERE unit IN ('', 'steps', 'step');`,

	// 2: lookups by source for re-imports.
	`CREATE INDEX IF NOT EXISTS idx_samples_source ON samples(source);`,
}

// SchemaVersion returns the PRAGMA user_version of the database.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// migrate applies every migration newer than the stored schema version.
func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.ExecContext(context.Background(), migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("migration %d: failed to bump version: %w", i+1, err)
		}
	}

	return nil
}
