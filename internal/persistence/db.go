package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

// BusyTimeoutMillis is how long a statement waits on a locked database file,
// e.g. while a second camwatch process is shutting down.
const BusyTimeoutMillis = 5000

// connectionPragmas are applied once to the single pooled connection.
var connectionPragmas = []struct {
	name string
	stmt string
}{
	{name: "busy timeout", stmt: fmt.Sprintf(`PRAGMA busy_timeout = %d;`, BusyTimeoutMillis)},
	{name: "foreign keys", stmt: `PRAGMA foreign_keys = ON;`},
	{name: "wal mode", stmt: `PRAGMA journal_mode = WAL;`},
	{name: "synchronous mode", stmt: `PRAGMA synchronous = NORMAL;`},
}

// Open opens the camwatch database at path and migrates it to the latest
// schema. The pool is limited to one connection so connection pragmas hold
// for every query and writes from the writer queue never contend.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db %s: %w", path, err)
	}
	for _, p := range connectionPragmas {
		if _, err := db.ExecContext(ctx, p.stmt); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("set %s on %s: %w", p.name, path, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return db, nil
}
