package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/common"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory. Used by tests and by
// development runs without an S3 endpoint.
type MemoryStorage struct {
	urlMapper
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStorage(publicURL string) *MemoryStorage {
	return &MemoryStorage{urlMapper: newURLMapper(publicURL), objects: make(map[string]memoryObject)}
}

func (s *MemoryStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return s.PublicURL(key), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Open(ctx context.Context, key string) (*Object, error) {
	s.mu.RLock()
	o, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &Object{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		ContentType: o.contentType,
		Size:        int64(len(o.data)),
	}, nil
}

func (s *MemoryStorage) PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int(expires.Seconds())))
	return s.PublicURL(key) + "?" + q.Encode(), nil
}

// Has reports whether key is stored.
func (s *MemoryStorage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len reports the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
