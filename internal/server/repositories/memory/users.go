package memory

import (
	"context"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Users struct {
	s *Store
}

func NewUsers(s *Store) *Users {
	return &Users{s: s}
}

func (r *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = copyUser(user)
	return user, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}
