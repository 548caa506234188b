package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Events struct {
	s *Store
}

func NewEvents(s *Store) *Events {
	return &Events{s: s}
}

func (r *Events) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.events {
		if e.Slug == event.Slug {
			return nil, common.ErrorAlreadyExists
		}
	}
	now := r.s.now()
	event.CreatedAt, event.UpdatedAt = now, now
	r.s.events[event.ID] = copyEvent(event)
	return event, nil
}

func (r *Events) GetByID(ctx context.Context, id string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyEvent(e), nil
}

func (r *Events) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.events {
		if e.Slug == slug {
			return copyEvent(e), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Events) ListByUser(ctx context.Context, userID string) ([]*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range r.s.photos {
		counts[p.EventID]++
	}

	result := make([]*models.Event, 0)
	for _, e := range r.s.events {
		if e.UserID != userID {
			continue
		}
		c := copyEvent(e)
		c.PhotoCount = counts[e.ID]
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Events) Update(ctx context.Context, id string, upd models.EventUpdate) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = upd.Description
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Location != nil {
		e.Location = upd.Location
	}
	e.UpdatedAt = r.s.now()
	return copyEvent(e), nil
}

// Delete also drops the event's photos, mirroring the ON DELETE CASCADE of
// the SQL schema.
func (r *Events) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.events, id)
	for pid, p := range r.s.photos {
		if p.EventID == id {
			delete(r.s.photos, pid)
		}
	}
	return nil
}
