package users

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	// Create inserts user. A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail returns common.ErrorNotFound when no user has that email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
