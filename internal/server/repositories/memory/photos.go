package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
)

type Photos struct {
	s *Store
}

func NewPhotos(s *Store) *Photos {
	return &Photos{s: s}
}

func (r *Photos) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[photo.EventID]; !ok {
		return nil, common.ErrorNotFound
	}
	photo.CreatedAt = r.s.now()
	photo.DownloadCount = 0
	r.s.photos[photo.ID] = copyPhoto(photo)
	return photo, nil
}

func (r *Photos) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.photos[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyPhoto(p), nil
}

func (r *Photos) ListByEvent(ctx context.Context, eventID string) ([]*models.Photo, error) {
	return r.filter(func(p *models.Photo) bool { return p.EventID == eventID }, true, 0), nil
}

func (r *Photos) ListPendingOptimization(ctx context.Context, after models.PhotoCursor, limit int) ([]*models.Photo, error) {
	return r.filter(func(p *models.Photo) bool { return !p.IsOptimized() && after.Precedes(p) }, false, limit), nil
}

func (r *Photos) filter(keep func(*models.Photo) bool, newestFirst bool, limit int) []*models.Photo {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.Photo, 0)
	for _, p := range r.s.photos {
		if keep(p) {
			result = append(result, copyPhoto(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		if newestFirst {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (r *Photos) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.photos[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.photos, id)
	return nil
}

func (r *Photos) SetDisplayURL(ctx context.Context, id string, url string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.photos[id]
	if !ok || p.IsOptimized() {
		return false, nil
	}
	p.DisplayURL = &url
	return true, nil
}

func (r *Photos) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.photos[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	p.DownloadCount++
	return p.DownloadCount, nil
}
