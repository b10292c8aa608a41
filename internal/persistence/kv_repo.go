package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skobkin/camwatch/internal/domain"
)

// KVRepo stores small string values by key.
type KVRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db, now: time.Now}
}

func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv(key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, millisTime(r.now()))
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}

	return nil
}

// Get returns ok=false when the key is absent.
func (r *KVRepo) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv %s: %w", key, err)
	}

	return value, true, nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}

	return nil
}

func (r *KVRepo) SaveLastConnection(ctx context.Context, l domain.LastConnection) error {
	raw, err := domain.EncodeLastConnection(l)
	if err != nil {
		return err
	}

	return r.Set(ctx, domain.LastConnectionKey, raw)
}

func (r *KVRepo) LoadLastConnection(ctx context.Context) (domain.LastConnection, bool, error) {
	raw, ok, err := r.Get(ctx, domain.LastConnectionKey)
	if err != nil || !ok {
		return domain.LastConnection{}, false, err
	}
	l, err := domain.DecodeLastConnection(raw)
	if err != nil {
		return domain.LastConnection{}, false, err
	}

	return l, true, nil
}
