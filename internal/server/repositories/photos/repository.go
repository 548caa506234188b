package photos

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	// ListByEvent returns the event's photos newest first.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Photo, error)
	Delete(ctx context.Context, id string) error
	// SetDisplayURL records the optimized rendition. It only writes when no
	// display URL is set yet and reports whether it did.
	SetDisplayURL(ctx context.Context, id string, url string) (bool, error)
	IncrementDownloads(ctx context.Context, id string) (int64, error)
	// ListPendingOptimization returns up to limit photos without a display URL
	// that come after the cursor, oldest first.
	ListPendingOptimization(ctx context.Context, after models.PhotoCursor, limit int) ([]*models.Photo, error)
}
