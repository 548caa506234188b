package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type RefreshTokens struct {
	s *Store
}

func NewRefreshTokens(s *Store) *RefreshTokens {
	return &RefreshTokens{s: s}
}

func (r *RefreshTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *token
	c.CreatedAt = r.s.now()
	r.s.refreshTokens[token.ID] = &c
	return nil
}

func (r *RefreshTokens) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refreshTokens[id]; !ok {
		return false, nil
	}
	delete(r.s.refreshTokens, id)
	return true, nil
}

func (r *RefreshTokens) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.refreshTokens {
		if t.UserID == userID {
			delete(r.s.refreshTokens, id)
			n++
		}
	}
	return n, nil
}

func (r *RefreshTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.refreshTokens {
		if !t.ExpiresAt.After(now) {
			delete(r.s.refreshTokens, id)
			n++
		}
	}
	return n, nil
}
