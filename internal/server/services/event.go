package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventphotos/internal/server/storage"
)

const (
	maxSlugBase     = 48
	slugAttempts    = 3
	shareLinkPrefix = "/events/"
)

// EventInput is a validated create request.
type EventInput struct {
	Title       string
	Description *string
	Date        time.Time
	Location    *string
}

type EventService struct {
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	log         logging.Logger
}

func NewEventService(m repomanager.RepositoryManager, st storage.Storage, log logging.Logger) *EventService {
	return &EventService{repomanager: m, storage: st, log: log.With("module", "events")}
}

func (s *EventService) Create(ctx context.Context, userID string, in EventInput) (*models.Event, error) {
	repo := s.repomanager.Events(s.repomanager.Conn())

	for attempt := 0; attempt < slugAttempts; attempt++ {
		suffix, err := common.MakeRandHexString(3)
		if err != nil {
			return nil, fmt.Errorf("error generating slug: %w", err)
		}
		slug := Slugify(in.Title) + "-" + suffix

		e, err := repo.Create(ctx, &models.Event{
			ID:          uuid.NewString(),
			UserID:      userID,
			Title:       in.Title,
			Slug:        slug,
			Description: in.Description,
			Date:        in.Date,
			Location:    in.Location,
			ShareLink:   shareLinkPrefix + slug,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error creating event: %w", err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("error creating event: no free slug after %d attempts", slugAttempts)
}

func (s *EventService) List(ctx context.Context, userID string) ([]*models.Event, error) {
	return s.repomanager.Events(s.repomanager.Conn()).ListByUser(ctx, userID)
}

// Get returns the event if userID owns it: common.ErrorNotFound for an
// unknown id, common.ErrorForbidden for someone else's event.
func (s *EventService) Get(ctx context.Context, userID, id string) (*models.Event, error) {
	return ownedEvent(ctx, s.repomanager, userID, id)
}

func (s *EventService) Update(ctx context.Context, userID, id string, upd models.EventUpdate) (*models.Event, error) {
	if _, err := ownedEvent(ctx, s.repomanager, userID, id); err != nil {
		return nil, err
	}
	return s.repomanager.Events(s.repomanager.Conn()).Update(ctx, id, upd)
}

// Delete removes the event with its photos, then deletes their objects. A
// failed object deletion is logged and does not fail the call.
func (s *EventService) Delete(ctx context.Context, userID, id string) error {
	if _, err := ownedEvent(ctx, s.repomanager, userID, id); err != nil {
		return err
	}

	db := s.repomanager.Conn()
	photos, err := s.repomanager.Photos(db).ListByEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("error listing photos: %w", err)
	}
	if err := s.repomanager.Events(db).Delete(ctx, id); err != nil {
		return err
	}

	for _, p := range photos {
		deletePhotoObjects(ctx, s.storage, s.log, p)
	}
	return nil
}

// GetPublic returns the gallery behind a share link.
func (s *EventService) GetPublic(ctx context.Context, slug string) (*models.Event, []*models.Photo, error) {
	db := s.repomanager.Conn()
	e, err := s.repomanager.Events(db).GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	photos, err := s.repomanager.Photos(db).ListByEvent(ctx, e.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing photos: %w", err)
	}
	e.PhotoCount = len(photos)
	return e, photos, nil
}

func ownedEvent(ctx context.Context, m repomanager.RepositoryManager, userID, id string) (*models.Event, error) {
	e, err := m.Events(m.Conn()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return e, nil
}

// Slugify turns a title into a lowercase, dash-separated ASCII slug.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugBase {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "event"
	}
	return slug
}
