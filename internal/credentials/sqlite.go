package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteRepository stores values in the credentials table created by the shared migrations.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key Key) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key Key, value string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, string(key), value); err != nil {
		return fmt.Errorf("failed to write credential %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single transaction.
func (r *SQLiteRepository) Delete(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", string(k)); err != nil {
			return fmt.Errorf("failed to delete credential %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credential delete: %w", err)
	}
	return nil
}
