// Package events stores photographer events.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

const eventColumns = `id, user_id, title, slug, description, date, location, share_link, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner, extra ...any) (*models.Event, error) {
	e := &models.Event{}
	dest := []any{&e.ID, &e.UserID, &e.Title, &e.Slug, &e.Description, &e.Date,
		&e.Location, &e.ShareLink, &e.CreatedAt, &e.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (id, user_id, title, slug, description, date, location, share_link)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.UserID, event.Title, event.Slug, event.Description,
		event.Date, event.Location, event.ShareLink).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	query :=
		`SELECT e.id, e.user_id, e.title, e.slug, e.description, e.date, e.location, e.share_link,
		        e.created_at, e.updated_at, COUNT(p.id)
		 FROM events e
		 LEFT JOIN photos p ON p.event_id = e.id
		 WHERE e.user_id = $1
		 GROUP BY e.id
		 ORDER BY e.date DESC, e.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Event, 0)
	for rows.Next() {
		var count int
		e, err := scanEvent(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.PhotoCount = count
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update applies the non-nil fields of upd and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.EventUpdate) (*models.Event, error) {
	query :=
		`UPDATE events SET
		    title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    date = COALESCE($4, date),
		    location = COALESCE($5, location),
		    updated_at = now()
		 WHERE id = $1
		 RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id, upd.Title, upd.Description, upd.Date, upd.Location))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Delete removes the event; photo rows go with it through the foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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
