package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaSteps are applied in order; the index+1 of the last applied step is
// stored in PRAGMA user_version.
var schemaSteps = []string{
	`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS connections (
		address TEXT PRIMARY KEY,
		last_connected_at INTEGER NOT NULL,
		connect_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_connections_last_connected_at ON connections(last_connected_at DESC);
	`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(schemaSteps); i++ {
		if err := applySchemaStep(ctx, db, i+1, schemaSteps[i]); err != nil {
			return err
		}
	}

	return nil
}

func applySchemaStep(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply migration %d: %w", version, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, version)); err != nil {
		return fmt.Errorf("set schema version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}

	return nil
}
