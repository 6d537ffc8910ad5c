package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Get returns a cached value. Expired entries are reported as missing and
// removed.
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := d.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM api_cache WHERE key = ?", key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	if d.now().Unix() >= expiresAt {
		if _, err := d.db.ExecContext(ctx, "DELETE FROM api_cache WHERE key = ?", key); err != nil {
			return nil, false, fmt.Errorf("failed to evict cache entry: %w", err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores a value for ttl, replacing any previous value of the key.
func (d *DB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
	INSERT INTO api_cache (key, value, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		created = CURRENT_TIMESTAMP
	`
	expiresAt := d.now().Add(ttl).Unix()
	if _, err := d.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// PurgeExpired removes all expired entries and returns their number.
func (d *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM api_cache WHERE expires_at <= ?", d.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// CacheSize returns the number of stored entries including expired ones.
func (d *DB) CacheSize(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
