package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

const exportColumns = "id, sequence, card_id, title, theme, format, path, created_at"

// ExportRepository implements models.Repository[*models.ExportRecord] over the exports table.
type ExportRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ExportRecord] = (*ExportRepository)(nil)

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create assigns an ID and sequence to record and inserts it.
func (r *ExportRepository) Create(ctx context.Context, record *models.ExportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(ctx, tx, "exports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO exports (` + exportColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		id,
		sequence,
		record.CardID(),
		record.Title(),
		record.Theme(),
		record.Format(),
		record.Path(),
		record.CreatedAt(),
	); err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

func (r *ExportRepository) Get(ctx context.Context, id string) (*models.ExportRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)

	record, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: export %s", shared.ErrNotFound, id)
	}
	return record, err
}

func (r *ExportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: export %s", shared.ErrNotFound, id)
	}
	return nil
}

// List returns exports newest first. Supported criteria: "card_id" and "format" (string), "limit" (int).
func (r *ExportRepository) List(ctx context.Context, criteria map[string]any) ([]*models.ExportRecord, error) {
	query := `SELECT ` + exportColumns + ` FROM exports WHERE 1 = 1`
	args := []any{}

	if cardID, ok := criteria["card_id"].(string); ok && cardID != "" {
		query += " AND card_id = ?"
		args = append(args, cardID)
	}

	if format, ok := criteria["format"].(string); ok && format != "" {
		query += " AND format = ?"
		args = append(args, format)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		record, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*models.ExportRecord, error) {
	var (
		id        string
		sequence  int
		cardID    string
		title     string
		theme     string
		format    string
		path      string
		createdAt time.Time
	)

	if err := s.Scan(&id, &sequence, &cardID, &title, &theme, &format, &path, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}

	return models.RestoreExportRecord(id, sequence, cardID, title, theme, format, path, createdAt), nil
}
