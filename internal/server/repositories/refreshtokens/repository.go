package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// Delete reports whether a row with the given jti existed. A false result
	// means the token was already rotated or logged out.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
