package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/tfkr-ae/showcase/db/compress"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upValueSize, downValueSize)
}

// upValueSize adds the logical size column used for quota accounting and backfills it.
// Compressed rows have to be decoded to learn their logical size, hence a Go migration.
func upValueSize(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `ALTER TABLE kv ADD COLUMN size INTEGER NOT NULL DEFAULT 0`)
	if err != nil {
		return fmt.Errorf("adding size column : %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT key, value, encoding FROM kv")
	if err != nil {
		return fmt.Errorf("getting all rows: %w", err)
	}

	sizes := make(map[string]int)
	for rows.Next() {
		var key, encoding string
		var value []byte
		if err := rows.Scan(&key, &value, &encoding); err != nil {
			rows.Close()
			return fmt.Errorf("scanning row: %w", err)
		}

		decoded, err := compress.Decode(value, encoding)
		if err != nil {
			rows.Close()
			return fmt.Errorf("decoding value for key %s : %w", key, err)
		}
		sizes[key] = len(key) + len(decoded)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating rows: %w", err)
	}
	rows.Close()

	for key, size := range sizes {
		_, err = tx.ExecContext(ctx, "UPDATE kv SET size = ? WHERE key = ?", size, key)
		if err != nil {
			return fmt.Errorf("updating row %s : %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at)`)
	if err != nil {
		return fmt.Errorf("creating updated_at index : %w", err)
	}
	return nil
}

func downValueSize(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_kv_updated_at`); err != nil {
		return fmt.Errorf("failed to drop updated_at index for rollback: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE kv DROP COLUMN size`); err != nil {
		return fmt.Errorf("failed to drop size column for rollback: %w", err)
	}
	return nil
}
