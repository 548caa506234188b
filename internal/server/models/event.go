package models

import "time"

// Event groups the photos of one shoot. Slug identifies its public gallery.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    *string   `json:"location,omitempty"`
	ShareLink   string    `json:"shareLink"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// PhotoCount is filled by listing queries only.
	PhotoCount int `json:"photoCount"`
}

// EventUpdate carries a partial update; nil fields are left unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}
