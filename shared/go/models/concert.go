package models

import "time"

// Role describes an artist's billing at a concert.
type Role string

const (
	RoleHeadliner Role = "headliner"
	RoleOpener    Role = "opener"
)

// SetlistStatus records what is known about a concert's setlist.
type SetlistStatus string

const (
	SetlistStatusNotResearched SetlistStatus = "not_researched"
	SetlistStatusHasSetlist    SetlistStatus = "has_setlist"
	// SetlistStatusVerifiedNone means setlist.fm was checked and had nothing.
	SetlistStatusVerifiedNone SetlistStatus = "verified_none_on_setlistfm"
)

// Concert represents an attended show and its artist roster
type Concert struct {
	ID            int64         `json:"id"`
	Date          time.Time     `json:"date"`
	VenueID       *int64        `json:"venue_id,omitempty"`
	VenueName     string        `json:"venue_name"`
	Artists       []ArtistEntry `json:"artists"`
	HasSetlist    bool          `json:"has_setlist"`
	SetlistStatus SetlistStatus `json:"setlist_status"`
	TourName      string        `json:"tour_name,omitempty"`
	Version       int64         `json:"version"` // Optimistic concurrency token
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ArtistEntry is one artist on a concert's bill.
type ArtistEntry struct {
	ArtistID   int64  `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	ArtistMBID string `json:"artist_mbid,omitempty"`
	Role       Role   `json:"role"`
	Position   int    `json:"position"` // 1-based
}

// Headliners returns the entries billed as headliner, in position order.
func (c *Concert) Headliners() []ArtistEntry {
	var out []ArtistEntry
	for _, a := range c.Artists {
		if a.Role == RoleHeadliner {
			out = append(out, a)
		}
	}
	return out
}

// CloneArtists returns a copy of the roster that can be mutated freely.
func (c *Concert) CloneArtists() []ArtistEntry {
	if c.Artists == nil {
		return nil
	}
	out := make([]ArtistEntry, len(c.Artists))
	copy(out, c.Artists)
	return out
}
