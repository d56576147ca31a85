package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tfkr-ae/showcase/db/compress"
	"github.com/tfkr-ae/showcase/domain"
)

var _ domain.KVRepository = (*Repository)(nil)

var (
	// ErrKeyNotFound is returned when no value is stored under a key.
	ErrKeyNotFound = domain.ErrKeyNotFound
	// ErrQuotaExceeded is returned when a write would grow the store past its quota.
	ErrQuotaExceeded = domain.ErrQuotaExceeded
)

// dbValue represents a stored value as kept in the database.
type dbValue struct {
	Key       string    `db:"key"`        // The full physical key.
	Value     []byte    `db:"value"`      // The value as stored at rest.
	Encoding  string    `db:"encoding"`   // How Value is encoded at rest.
	Size      int       `db:"size"`       // Logical size of key plus decoded value.
	UpdatedAt time.Time `db:"updated_at"` // Time of the last write.
}

// logicalSize is the number of bytes a key/value pair is charged against the quota.
func logicalSize(key string, value []byte) int {
	return len(key) + len(value)
}

// GetValue retrieves the decoded value stored under key.
func (repo *Repository) GetValue(ctx context.Context, key string) ([]byte, error) {
	var row dbValue
	query := `SELECT key, value, encoding FROM kv WHERE key = ?`

	err := repo.dbConn.GetContext(ctx, &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting value %s: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("getting value %s: %w", key, err)
	}

	value, err := compress.Decode(row.Value, row.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decoding value %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, enforcing the quota on the resulting logical size.
func (repo *Repository) SetValue(ctx context.Context, key string, value []byte) error {
	encoded, encoding, err := compress.Encode(value, repo.compressThreshold)
	if err != nil {
		return fmt.Errorf("encoding value %s: %w", key, err)
	}

	row := &dbValue{
		Key:       key,
		Value:     encoded,
		Encoding:  encoding,
		Size:      logicalSize(key, value),
		UpdatedAt: time.Now().UTC(),
	}

	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction for %s: %w", key, err)
	}
	defer tx.Rollback()

	if repo.quota > 0 {
		var used int64
		err = tx.GetContext(ctx, &used, `SELECT COALESCE(SUM(size), 0) FROM kv WHERE key != ?`, key)
		if err != nil {
			return fmt.Errorf("computing used bytes: %w", err)
		}
		if used+int64(row.Size) > repo.quota {
			return fmt.Errorf("setting value %s (%d bytes, %d used of %d): %w", key, row.Size, used, repo.quota, ErrQuotaExceeded)
		}
	}

	query := `INSERT INTO kv (key, value, encoding, size, updated_at)
	          VALUES (:key, :value, :encoding, :size, :updated_at)
	          ON CONFLICT(key) DO UPDATE SET
	              value = excluded.value,
	              encoding = excluded.encoding,
	              size = excluded.size,
	              updated_at = excluded.updated_at`

	if _, err = tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("setting value %s: %w", key, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing value %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes the value stored under key.
func (repo *Repository) DeleteValue(ctx context.Context, key string) error {
	_, err := repo.dbConn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting value %s: %w", key, err)
	}
	return nil
}

// ListKeys retrieves every key starting with prefix in ascending order.
func (repo *Repository) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	var err error
	if prefix == "" {
		err = repo.dbConn.SelectContext(ctx, &keys, `SELECT key FROM kv ORDER BY key`)
	} else {
		err = repo.dbConn.SelectContext(ctx, &keys, `SELECT key FROM kv WHERE instr(key, ?) = 1 ORDER BY key`, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// UsedBytes returns the logical size of everything in the store.
func (repo *Repository) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	err := repo.dbConn.GetContext(ctx, &used, `SELECT COALESCE(SUM(size), 0) FROM kv`)
	if err != nil {
		return 0, fmt.Errorf("getting used bytes: %w", err)
	}
	return used, nil
}
