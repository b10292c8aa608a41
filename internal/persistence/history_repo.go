package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skobkin/camwatch/internal/domain"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Touch records one more successful connection to l.Address.
func (r *HistoryRepo) Touch(ctx context.Context, l domain.LastConnection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO connections(address, last_connected_at, connect_count)
		VALUES (?, ?, 1)
		ON CONFLICT(address) DO UPDATE SET
			last_connected_at = MAX(connections.last_connected_at, excluded.last_connected_at),
			connect_count = connections.connect_count + 1
	`, l.Address, millisTime(l.Time()))
	if err != nil {
		return fmt.Errorf("touch connection history: %w", err)
	}

	return nil
}

func (r *HistoryRepo) ListRecent(ctx context.Context, limit int) ([]domain.ConnectionHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT address, last_connected_at, connect_count
		FROM connections
		ORDER BY last_connected_at DESC, address ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list connection history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ConnectionHistoryEntry
	for rows.Next() {
		var (
			entry  domain.ConnectionHistoryEntry
			lastAt millisTime
		)
		if err := rows.Scan(&entry.Address, &lastAt, &entry.ConnectCount); err != nil {
			return nil, fmt.Errorf("scan connection history: %w", err)
		}
		entry.LastConnectedAt = lastAt.Time()
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection history: %w", err)
	}

	return out, nil
}
