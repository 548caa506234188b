package uploads

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/client/models"
)

// Repository remembers which local files were already uploaded to an event.
type Repository interface {
	// Find returns the record for path in eventID, or common.ErrorNotFound.
	Find(ctx context.Context, eventID, path string) (*models.Upload, error)

	// Save inserts or replaces the record for (EventID, Path).
	Save(ctx context.Context, u *models.Upload) error

	// ListByEvent returns the records of one event ordered by path.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Upload, error)

	// Forget drops every record of an event and returns how many were removed.
	Forget(ctx context.Context, eventID string) (int64, error)
}
