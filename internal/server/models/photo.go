package models

import "time"

// Photo is a single uploaded image. URL points at the original object;
// DisplayURL is set once the optimized rendition exists.
type Photo struct {
	ID            string    `json:"id"`
	EventID       string    `json:"eventId"`
	URL           string    `json:"url"`
	DisplayURL    *string   `json:"displayUrl"`
	ThumbnailURL  *string   `json:"thumbnailUrl"`
	BlurDataURL   *string   `json:"blurDataUrl"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	Width         *int      `json:"width"`
	Height        *int      `json:"height"`
	DownloadCount int64     `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsOptimized reports whether the optimized rendition is already recorded.
func (p *Photo) IsOptimized() bool {
	return p.DisplayURL != nil && *p.DisplayURL != ""
}

// PhotoCursor is a position in a scan ordered by created_at, then id. The
// zero value starts at the beginning.
type PhotoCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAt returns the cursor positioned on p.
func CursorAt(p *Photo) PhotoCursor {
	return PhotoCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Precedes reports whether p comes strictly after the cursor.
func (c PhotoCursor) Precedes(p *Photo) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return p.ID > c.ID
	}
	return p.CreatedAt.After(c.CreatedAt)
}
