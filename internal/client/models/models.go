// Package models holds the API shapes the eventphotos client exchanges with
// the server.
package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    *string   `json:"location,omitempty"`
	ShareLink   string    `json:"shareLink"`
	PhotoCount  int       `json:"photoCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewEvent is the body of an event creation. Date is RFC3339 or YYYY-MM-DD.
type NewEvent struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Date        string  `json:"date"`
	Location    *string `json:"location,omitempty"`
}

type Photo struct {
	ID            string    `json:"id"`
	EventID       string    `json:"eventId"`
	URL           string    `json:"url"`
	DisplayURL    *string   `json:"displayUrl"`
	ThumbnailURL  *string   `json:"thumbnailUrl"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	Width         *int      `json:"width"`
	Height        *int      `json:"height"`
	DownloadCount int64     `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewPhoto registers an object that was PUT through a presigned URL.
type NewPhoto struct {
	EventID  string `json:"eventId"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

// PresignedUpload is a one-off PUT target in object storage.
type PresignedUpload struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
}

// Upload is a finished upload recorded in the local state database.
type Upload struct {
	EventID    string
	Path       string
	Size       int64
	ModTime    time.Time
	PhotoID    string
	UploadedAt time.Time
}
