// Package photos stores photo metadata. Image bytes live in object storage.
package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

const photoColumns = `id, event_id, url, display_url, thumbnail_url, blur_data_url, file_name, file_size,
	width, height, download_count, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner) (*models.Photo, error) {
	p := &models.Photo{}
	err := row.Scan(&p.ID, &p.EventID, &p.URL, &p.DisplayURL, &p.ThumbnailURL, &p.BlurDataURL,
		&p.FileName, &p.FileSize, &p.Width, &p.Height, &p.DownloadCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query :=
		`INSERT INTO photos (id, event_id, url, thumbnail_url, blur_data_url, file_name, file_size, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING download_count, created_at`

	err := r.db.QueryRowContext(ctx, query,
		photo.ID, photo.EventID, photo.URL, photo.ThumbnailURL, photo.BlurDataURL,
		photo.FileName, photo.FileSize, photo.Width, photo.Height).Scan(&photo.DownloadCount, &photo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Photo, error) {
	return r.list(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE event_id = $1 ORDER BY created_at DESC, id`, eventID)
}

func (r *PostgresRepository) ListPendingOptimization(ctx context.Context, after models.PhotoCursor, limit int) ([]*models.Photo, error) {
	return r.list(ctx,
		`SELECT `+photoColumns+` FROM photos
		 WHERE display_url IS NULL AND (created_at, id) > ($1, $2)
		 ORDER BY created_at, id LIMIT $3`, after.CreatedAt, after.ID, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetDisplayURL(ctx context.Context, id string, url string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE photos SET display_url = $2 WHERE id = $1 AND display_url IS NULL`, id, url)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// IncrementDownloads bumps the counter and returns the new value.
func (r *PostgresRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE photos SET download_count = download_count + 1 WHERE id = $1 RETURNING download_count`, id).
		Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
