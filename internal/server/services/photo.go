package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/optimizer"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventphotos/internal/server/storage"
)

const (
	presignExpiry       = 15 * time.Minute
	defaultRecoverBatch = 1000
)

// Enqueuer accepts photo ids for background optimization.
type Enqueuer interface {
	Enqueue(photoID string) bool
	EnqueueWait(ctx context.Context, photoID string) (bool, error)
}

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	Name        string
	Data        []byte
	BlurDataURL *string
}

// PhotoInput registers an object that was uploaded directly to storage.
type PhotoInput struct {
	EventID      string
	URL          string
	ThumbnailURL *string
	FileName     string
	FileSize     int64
	Width        *int
	Height       *int
}

// PresignedUpload is handed to clients that PUT straight to storage.
type PresignedUpload struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
}

type PhotoService struct {
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	optimizer   *optimizer.Optimizer
	queue       Enqueuer
	log         logging.Logger
}

func NewPhotoService(m repomanager.RepositoryManager, st storage.Storage, o *optimizer.Optimizer, log logging.Logger) *PhotoService {
	return &PhotoService{repomanager: m, storage: st, optimizer: o, log: log.With("module", "photos")}
}

// SetQueue wires the background optimizer. Without it new photos stay
// unoptimized until optimized explicitly.
func (s *PhotoService) SetQueue(q Enqueuer) {
	s.queue = q
}

// Upload stores files in the event and registers them as photos.
func (s *PhotoService) Upload(ctx context.Context, userID, eventID string, files []UploadFile) ([]*models.Photo, error) {
	if _, err := ownedEvent(ctx, s.repomanager, userID, eventID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Photos(s.repomanager.Conn())
	result := make([]*models.Photo, 0, len(files))
	for _, f := range files {
		key := storage.PhotoKey(eventID, f.Name)
		url, err := s.storage.Upload(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), common.ContentTypeFor(f.Name))
		if err != nil {
			return result, fmt.Errorf("error uploading %s: %w", f.Name, err)
		}

		p := &models.Photo{
			ID:          uuid.NewString(),
			EventID:     eventID,
			URL:         url,
			BlurDataURL: f.BlurDataURL,
			FileName:    f.Name,
			FileSize:    int64(len(f.Data)),
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err == nil {
			p.Width, p.Height = &cfg.Width, &cfg.Height
		}

		created, err := repo.Create(ctx, p)
		if err != nil {
			_ = s.storage.Delete(ctx, key)
			return result, fmt.Errorf("error saving photo: %w", err)
		}
		s.enqueue(ctx, created.ID)
		result = append(result, created)
	}
	return result, nil
}

// Create registers an already uploaded object. The URL and the thumbnail URL
// must point into the event's own part of our bucket.
func (s *PhotoService) Create(ctx context.Context, userID string, in PhotoInput) (*models.Photo, error) {
	if _, err := ownedEvent(ctx, s.repomanager, userID, in.EventID); err != nil {
		return nil, err
	}
	if err := s.eventObject(in.EventID, in.URL); err != nil {
		return nil, err
	}
	if in.ThumbnailURL != nil {
		if err := s.eventObject(in.EventID, *in.ThumbnailURL); err != nil {
			return nil, err
		}
	}

	p, err := s.repomanager.Photos(s.repomanager.Conn()).Create(ctx, &models.Photo{
		ID:           uuid.NewString(),
		EventID:      in.EventID,
		URL:          in.URL,
		ThumbnailURL: in.ThumbnailURL,
		FileName:     in.FileName,
		FileSize:     in.FileSize,
		Width:        in.Width,
		Height:       in.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving photo: %w", err)
	}
	s.enqueue(ctx, p.ID)
	return p, nil
}

// eventObject checks that url names an object stored under eventID.
func (s *PhotoService) eventObject(eventID, url string) error {
	key, err := s.storage.KeyFromURL(url)
	if err != nil {
		return err
	}
	if !storage.InEvent(key, eventID) {
		return common.ErrForeignObjectURL
	}
	return nil
}

// Presign returns a presigned PUT for a new object in the event.
func (s *PhotoService) Presign(ctx context.Context, userID, eventID, fileName string) (*PresignedUpload, error) {
	if _, err := ownedEvent(ctx, s.repomanager, userID, eventID); err != nil {
		return nil, err
	}
	key := storage.PhotoKey(eventID, fileName)
	url, err := s.storage.PresignPut(ctx, key, common.ContentTypeFor(fileName), presignExpiry)
	if err != nil {
		return nil, err
	}
	return &PresignedUpload{Key: key, URL: url, PublicURL: s.storage.PublicURL(key)}, nil
}

// List returns the event's photos, newest first.
func (s *PhotoService) List(ctx context.Context, eventID string) ([]*models.Photo, error) {
	db := s.repomanager.Conn()
	if _, err := s.repomanager.Events(db).GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repomanager.Photos(db).ListByEvent(ctx, eventID)
}

func (s *PhotoService) Get(ctx context.Context, id string) (*models.Photo, error) {
	return s.repomanager.Photos(s.repomanager.Conn()).GetByID(ctx, id)
}

// Delete removes the photo row, then its objects on a best-effort basis.
func (s *PhotoService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repomanager.Photos(s.repomanager.Conn()).Delete(ctx, id); err != nil {
		return err
	}
	deletePhotoObjects(ctx, s.storage, s.log, p)
	return nil
}

// Download counts a download and returns the new total.
func (s *PhotoService) Download(ctx context.Context, id string) (int64, error) {
	return s.repomanager.Photos(s.repomanager.Conn()).IncrementDownloads(ctx, id)
}

// OptimizeOwned runs the optimization synchronously on behalf of the owner.
func (s *PhotoService) OptimizeOwned(ctx context.Context, userID, id string) (*models.Photo, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.Optimize(ctx, id)
}

// Optimize renders and stores the display version of a photo. A photo that
// already has one is returned unchanged.
func (s *PhotoService) Optimize(ctx context.Context, id string) (*models.Photo, error) {
	repo := s.repomanager.Photos(s.repomanager.Conn())

	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsOptimized() {
		return p, nil
	}

	key, err := s.storage.KeyFromURL(p.URL)
	if err != nil {
		return nil, fmt.Errorf("photo %s: %w", id, err)
	}
	obj, err := s.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error opening original: %w", err)
	}
	defer obj.Body.Close()

	r, err := s.optimizer.Render(obj.Body)
	if err != nil {
		return nil, err
	}

	displayURL, err := s.storage.Upload(ctx, storage.DisplayKey(p.EventID, p.ID),
		bytes.NewReader(r.Data), int64(len(r.Data)), optimizer.DisplayContentType)
	if err != nil {
		return nil, fmt.Errorf("error uploading rendition: %w", err)
	}

	if _, err := repo.SetDisplayURL(ctx, id, displayURL); err != nil {
		return nil, fmt.Errorf("error saving display url: %w", err)
	}
	return repo.GetByID(ctx, id)
}

// OptimizeJob adapts Optimize to the optimizer queue.
func (s *PhotoService) OptimizeJob(ctx context.Context, id string) error {
	_, err := s.Optimize(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

// RecoverPending re-enqueues every photo that has no display version yet,
// e.g. because the process stopped mid-queue or the queue was full. It reads
// batch rows at a time and waits for queue space. It returns how many photos
// were enqueued.
func (s *PhotoService) RecoverPending(ctx context.Context, batch int) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	if batch <= 0 {
		batch = defaultRecoverBatch
	}
	repo := s.repomanager.Photos(s.repomanager.Conn())

	n := 0
	var cursor models.PhotoCursor
	for {
		pending, err := repo.ListPendingOptimization(ctx, cursor, batch)
		if err != nil {
			return n, err
		}
		for _, p := range pending {
			ok, err := s.queue.EnqueueWait(ctx, p.ID)
			if err != nil {
				return n, err
			}
			if ok {
				n++
			}
		}
		if len(pending) < batch {
			return n, nil
		}
		cursor = models.CursorAt(pending[len(pending)-1])
	}
}

// Open streams a stored object addressed by its public URL.
func (s *PhotoService) Open(ctx context.Context, url string) (*storage.Object, error) {
	key, err := s.storage.KeyFromURL(url)
	if err != nil {
		return nil, err
	}
	return s.storage.Open(ctx, key)
}

func (s *PhotoService) owned(ctx context.Context, userID, id string) (*models.Photo, error) {
	p, err := s.repomanager.Photos(s.repomanager.Conn()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := ownedEvent(ctx, s.repomanager, userID, p.EventID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PhotoService) enqueue(ctx context.Context, id string) {
	if s.queue == nil {
		return
	}
	if !s.queue.Enqueue(id) {
		s.log.Warn(ctx, "optimizer queue full, photo left for recovery", "photo_id", id)
	}
}

func deletePhotoObjects(ctx context.Context, st storage.Storage, log logging.Logger, p *models.Photo) {
	urls := []string{p.URL}
	if p.DisplayURL != nil {
		urls = append(urls, *p.DisplayURL)
	}
	if p.ThumbnailURL != nil {
		urls = append(urls, *p.ThumbnailURL)
	}
	for _, u := range urls {
		key, err := st.KeyFromURL(u)
		if err == nil && !storage.InEvent(key, p.EventID) {
			err = common.ErrForeignObjectURL
		}
		if err != nil {
			log.Warn(ctx, "refusing to delete object", "url", u, "error", err)
			continue
		}
		if err := st.Delete(ctx, key); err != nil {
			log.Warn(ctx, "object deletion failed", "key", key, "error", err)
		}
	}
}

// readAllLimited reads r, failing once more than limit bytes arrive.
func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, limit)
	}
	return data, nil
}

// ReadUpload reads one multipart file into an UploadFile.
func ReadUpload(name string, r io.Reader, limit int64, blur *string) (UploadFile, error) {
	data, err := readAllLimited(r, limit)
	if err != nil {
		return UploadFile{}, err
	}
	return UploadFile{Name: name, Data: data, BlurDataURL: blur}, nil
}
