package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearResult counts the rows ClearDatabase removed.
type ClearResult struct {
	Connections int64
	Settings    int64
}

// ClearDatabase forgets the recent address history and the stored last
// connection in one transaction.
func ClearDatabase(ctx context.Context, db *sql.DB) (ClearResult, error) {
	if db == nil {
		return ClearResult{}, fmt.Errorf("database is not initialized")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClearResult{}, fmt.Errorf("begin clear database tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var res ClearResult
	//goland:noinspection SqlWithoutWhere
	targets := []struct {
		table string
		stmt  string
		count *int64
	}{
		{table: "connections", stmt: `DELETE FROM connections;`, count: &res.Connections},
		{table: "kv", stmt: `DELETE FROM kv;`, count: &res.Settings},
	}
	for _, target := range targets {
		out, err := tx.ExecContext(ctx, target.stmt)
		if err != nil {
			return ClearResult{}, fmt.Errorf("clear %s: %w", target.table, err)
		}
		if *target.count, err = out.RowsAffected(); err != nil {
			return ClearResult{}, fmt.Errorf("count cleared %s rows: %w", target.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ClearResult{}, fmt.Errorf("commit clear database tx: %w", err)
	}

	return res, nil
}
