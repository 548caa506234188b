package models

import "time"

// RefreshToken records an issued refresh token by its JWT id. A refresh is
// accepted only while its record exists.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
