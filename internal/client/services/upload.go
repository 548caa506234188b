// Package services holds the CLI's application services.
package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/eventphotos/internal/client/client"
	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/netx"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// PhotoAPI is the part of the API client a bulk upload needs.
type PhotoAPI interface {
	Presign(ctx context.Context, eventID, fileName string) (*models.PresignedUpload, error)
	CreatePhoto(ctx context.Context, p models.NewPhoto) (*models.Photo, error)
}

// PutFunc sends one object body to a presigned URL.
type PutFunc func(ctx context.Context, url, contentType string, body io.Reader, size int64) error

// HTTPPut adapts netx.UploadToPresignedURL to PutFunc.
func HTTPPut(hc *http.Client) PutFunc {
	return func(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
		return netx.UploadToPresignedURL(ctx, hc, url, contentType, body, size)
	}
}

// UploadResult is the outcome for one file.
type UploadResult struct {
	Path    string
	PhotoID string
	Skipped bool
	Err     error
}

type UploadReport struct {
	Uploaded int
	Skipped  int
	Failed   int
	Results  []UploadResult
}

type UploadService struct {
	api         PhotoAPI
	ledger      uploads.Repository
	put         PutFunc
	concurrency int
	now         func() time.Time
}

func NewUploadService(api PhotoAPI, ledger uploads.Repository, put PutFunc, concurrency int) *UploadService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &UploadService{api: api, ledger: ledger, put: put, concurrency: concurrency, now: time.Now}
}

// CollectFiles expands root into the image files to upload. A directory is
// walked recursively; a single file is returned as is. Paths are absolute
// and sorted.
func CollectFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !common.IsImageFile(abs) {
			return nil, fmt.Errorf("%s: not a supported image", root)
		}
		return []string{abs}, nil
	}

	var files []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != abs && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && common.IsImageFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BulkUpload uploads paths to eventID through presigned URLs, at most
// concurrency at a time. Files recorded in the ledger with the same size and
// modification time are skipped. A failure on one file does not stop the
// others, but a lost session aborts the whole run. progress, if set, is
// called once per file from a single goroutine at a time.
func (s *UploadService) BulkUpload(ctx context.Context, eventID string, paths []string, progress func(UploadResult)) (*UploadReport, error) {
	report := &UploadReport{Results: make([]UploadResult, len(paths))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range paths {
		g.Go(func() error {
			res := s.uploadOne(ctx, eventID, p)

			mu.Lock()
			report.Results[i] = res
			switch {
			case res.Err != nil:
				report.Failed++
			case res.Skipped:
				report.Skipped++
			default:
				report.Uploaded++
			}
			if progress != nil {
				progress(res)
			}
			mu.Unlock()

			if errors.Is(res.Err, client.ErrUnauthorized) {
				return res.Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *UploadService) uploadOne(ctx context.Context, eventID, path string) UploadResult {
	res := UploadResult{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		res.Err = err
		return res
	}

	prev, err := s.ledger.Find(ctx, eventID, path)
	switch {
	case err == nil && prev.Size == info.Size() && prev.ModTime.Equal(info.ModTime().UTC()):
		res.Skipped = true
		res.PhotoID = prev.PhotoID
		return res
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		res.Err = err
		return res
	}

	width, height := dimensions(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		res.Err = err
		return res
	}

	name := filepath.Base(path)
	up, err := s.api.Presign(ctx, eventID, name)
	if err != nil {
		res.Err = fmt.Errorf("presign: %w", err)
		return res
	}
	if err := s.put(ctx, up.URL, common.ContentTypeFor(name), f, info.Size()); err != nil {
		res.Err = fmt.Errorf("put: %w", err)
		return res
	}

	photo, err := s.api.CreatePhoto(ctx, models.NewPhoto{
		EventID:  eventID,
		URL:      up.PublicURL,
		FileName: name,
		FileSize: info.Size(),
		Width:    width,
		Height:   height,
	})
	if err != nil {
		res.Err = fmt.Errorf("register photo: %w", err)
		return res
	}
	res.PhotoID = photo.ID

	if err := s.ledger.Save(ctx, &models.Upload{
		EventID:    eventID,
		Path:       path,
		Size:       info.Size(),
		ModTime:    info.ModTime().UTC(),
		PhotoID:    photo.ID,
		UploadedAt: s.now().UTC(),
	}); err != nil {
		res.Err = fmt.Errorf("record upload: %w", err)
	}
	return res
}

// dimensions reads the image header. Unknown formats yield nil sizes.
func dimensions(r io.Reader) (*int, *int) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}
