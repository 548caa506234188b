package events

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Repository interface {
	// Create inserts event. A slug collision yields common.ErrorAlreadyExists.
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string) (*models.Event, error)
	// ListByUser returns the user's events newest first with PhotoCount set.
	ListByUser(ctx context.Context, userID string) ([]*models.Event, error)
	Update(ctx context.Context, id string, upd models.EventUpdate) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}
