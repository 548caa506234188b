// Package memory implements every repository over plain maps guarded by a
// single mutex. It backs local development without Postgres and the
// end-to-end HTTP tests.
package memory

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	events        map[string]*models.Event
	photos        map[string]*models.Photo
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		events:        make(map[string]*models.Event),
		photos:        make(map[string]*models.Photo),
	}
}

// WithClock replaces the timestamp source used for created_at columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	return &c
}

func copyPhoto(p *models.Photo) *models.Photo {
	c := *p
	return &c
}
