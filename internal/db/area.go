// ABOUTME: Local storage area backed by the SQLite kv table.
// ABOUTME: Device-only backup for state mirrored from the synced area.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harper/tagfilter/internal/storage"
)

// LocalArea is the name the local area reports.
const LocalArea = "local"

type Area struct {
	db   *sql.DB
	name string
}

func NewArea(db *sql.DB) *Area {
	return &Area{db: db, name: LocalArea}
}

func (a *Area) Name() string {
	return a.name
}

func (a *Area) Get(ctx context.Context, keys []storage.Key) (map[storage.Key][]byte, error) {
	return GetValues(ctx, a.db, a.name, keys)
}

func (a *Area) Set(ctx context.Context, items map[storage.Key][]byte) error {
	return SetValues(ctx, a.db, a.name, items)
}

func GetValues(ctx context.Context, db *sql.DB, area string, keys []storage.Key) (map[storage.Key][]byte, error) {
	out := make(map[storage.Key][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, area)
	for _, k := range keys {
		args = append(args, string(k))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	rows, err := db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE area = ? AND key IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[storage.Key(key)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func SetValues(ctx context.Context, db *sql.DB, area string, items map[storage.Key][]byte) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for k, v := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (area, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(area, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, area, string(k), v, now)
		if err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func DeleteValues(ctx context.Context, db *sql.DB, area string) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM kv WHERE area = ?`, area)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// LastUpdated returns the newest write time in area, zero if empty.
func LastUpdated(ctx context.Context, db *sql.DB, area string) (time.Time, error) {
	var ts sql.NullTime
	err := db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM kv WHERE area = ?`, area).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}
