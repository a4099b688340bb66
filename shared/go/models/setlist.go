package models

import "time"

// Song is a single performed song within a setlist
type Song struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	SetName     string `json:"set_name"`
	Encore      int    `json:"encore"`
	IsCover     bool   `json:"is_cover"`
	CoverArtist string `json:"cover_artist,omitempty"`
	IsTape      bool   `json:"is_tape"`
	Info        string `json:"info,omitempty"`
}

// Setlist is the songs one artist played at one concert.
// ID is derived from the concert id and the artist slug so re-imports overwrite in place.
type Setlist struct {
	ID           string    `json:"id"`
	ConcertID    int64     `json:"concert_id"`
	ArtistID     *int64    `json:"artist_id,omitempty"`
	ArtistName   string    `json:"artist_name"`
	TourName     string    `json:"tour_name,omitempty"`
	SetlistFMID  string    `json:"setlistfm_id,omitempty"`
	SetlistFMURL string    `json:"setlistfm_url,omitempty"`
	Songs        []Song    `json:"songs"`
	SongCount    int       `json:"song_count"`
	HasEncore    bool      `json:"has_encore"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// SetlistSummary is the part of a setlist role derivation needs.
// ArtistID is zero for setlists recorded before the artist was resolved.
type SetlistSummary struct {
	ArtistID   int64  `json:"artist_id,omitempty"`
	ArtistName string `json:"artist_name"`
	SongCount  int    `json:"song_count"`
}
