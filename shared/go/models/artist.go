package models

import "time"

// Artist is the global record an ArtistEntry points at.
type Artist struct {
	ID            int64     `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	MBID          string    `json:"mbid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
