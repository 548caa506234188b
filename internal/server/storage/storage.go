// Package storage puts photo bytes into an S3-compatible bucket and maps
// object keys to and from the public URLs stored in the database.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/oklog/ulid/v2"
)

// Object is an opened stored object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Storage is the object store behind photo uploads.
type Storage interface {
	// Upload writes body under key and returns its public URL.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// Open returns common.ErrorNotFound for a missing key.
	Open(ctx context.Context, key string) (*Object, error)
	// PresignPut returns a URL the client can PUT the object to directly.
	PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error)

	PublicURL(key string) string
	// KeyFromURL resolves a public URL back to a key, refusing anything that
	// does not point into our own photo prefixes.
	KeyFromURL(url string) (string, error)
}

// Key prefixes objects may live under.
const (
	PrefixEvents  = "events/"
	PrefixUploads = "uploads/"
)

// urlMapper implements the URL half of Storage for a public base URL.
type urlMapper struct {
	base string
}

func newURLMapper(base string) urlMapper {
	return urlMapper{base: strings.TrimRight(base, "/")}
}

func (m urlMapper) PublicURL(key string) string {
	return m.base + "/" + key
}

func (m urlMapper) KeyFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, m.base+"/") {
		return "", common.ErrForeignObjectURL
	}
	key := strings.TrimPrefix(url, m.base+"/")
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// ValidateKey rejects keys that escape the photo prefixes.
func ValidateKey(key string) error {
	switch {
	case key == "",
		strings.HasPrefix(key, "/"),
		strings.Contains(key, ".."),
		strings.ContainsAny(key, "?#\\"):
		return common.ErrInvalidObjectKey
	case !strings.HasPrefix(key, PrefixEvents) && !strings.HasPrefix(key, PrefixUploads):
		return common.ErrInvalidObjectKey
	}
	return nil
}

// InEvent reports whether key lives under one of eventID's own prefixes,
// events/<id>/ or uploads/<id>/.
func InEvent(key, eventID string) bool {
	if eventID == "" || strings.ContainsAny(eventID, "/.") {
		return false
	}
	return strings.HasPrefix(key, PrefixEvents+eventID+"/") ||
		strings.HasPrefix(key, PrefixUploads+eventID+"/")
}

// PhotoKey returns a fresh key for an original upload of fileName.
func PhotoKey(eventID, fileName string) string {
	return fmt.Sprintf("%s%s/%s%s", PrefixEvents, eventID, strings.ToLower(ulid.Make().String()), common.ImageExtension(fileName))
}

// DisplayKey is where the optimized rendition of a photo is stored.
func DisplayKey(eventID, photoID string) string {
	return fmt.Sprintf("%s%s/display/%s.jpg", PrefixEvents, eventID, photoID)
}
