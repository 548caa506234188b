// Package uploads is the CLI's ledger of finished photo uploads, kept in a
// local SQLite database so an interrupted bulk upload can resume.
package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Find(ctx context.Context, eventID, path string) (*models.Upload, error) {
	query := `select event_id, path, size, mod_time, photo_id, uploaded_at from uploads where event_id=? and path=?`
	row := r.db.QueryRowContext(ctx, query, eventID, path)

	u, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, u *models.Upload) error {
	query := `insert into uploads (event_id, path, size, mod_time, photo_id, uploaded_at)
			values (?, ?, ?, ?, ?, ?)
			on conflict(event_id, path) do update set
				size = excluded.size,
				mod_time = excluded.mod_time,
				photo_id = excluded.photo_id,
				uploaded_at = excluded.uploaded_at`
	_, err := r.db.ExecContext(ctx, query, u.EventID, u.Path, u.Size,
		u.ModTime.UnixNano(), u.PhotoID, u.UploadedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Upload, error) {
	query := `select event_id, path, size, mod_time, photo_id, uploaded_at from uploads where event_id=? order by path`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("error selecting uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Forget(ctx context.Context, eventID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `delete from uploads where event_id=?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete uploads: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*models.Upload, error) {
	var (
		u                 models.Upload
		modTime, uploaded int64
	)
	if err := s.Scan(&u.EventID, &u.Path, &u.Size, &modTime, &u.PhotoID, &uploaded); err != nil {
		return nil, err
	}
	u.ModTime = time.Unix(0, modTime).UTC()
	u.UploadedAt = time.Unix(0, uploaded).UTC()
	return &u, nil
}
