package reconcile

import "earplugs/shared/go/models"

// SongCounts holds each artist's largest setlist at a concert. Setlists are
// attributed by artist id; the normalized name is only used for setlists
// recorded without one.
type SongCounts struct {
	byID   map[int64]int
	byName map[string]int
}

// MaxSongCounts folds a concert's setlists into per-artist maxima.
func MaxSongCounts(setlists []models.SetlistSummary) SongCounts {
	counts := SongCounts{
		byID:   make(map[int64]int, len(setlists)),
		byName: make(map[string]int),
	}
	for _, s := range setlists {
		counts.observe(s.ArtistID, s.ArtistName, s.SongCount)
	}
	return counts
}

func (c SongCounts) observe(artistID int64, name string, count int) {
	if artistID != 0 {
		if cur, ok := c.byID[artistID]; !ok || count > cur {
			c.byID[artistID] = count
		}
		return
	}
	key := Normalize(name)
	if cur, ok := c.byName[key]; !ok || count > cur {
		c.byName[key] = count
	}
}

// For returns the song count recorded for a roster entry, zero when it has none.
// A setlist stored under another spelling still counts when it carries the
// entry's artist id.
func (c SongCounts) For(e models.ArtistEntry) int {
	n := c.byName[Normalize(e.ArtistName)]
	if e.ArtistID != 0 {
		n = max(n, c.byID[e.ArtistID])
	}
	return n
}

// InitialRole bills a new artist as opener when any other artist at the concert
// played strictly more songs.
func InitialRole(artistID int64, artistName string, songCount int, setlists []models.SetlistSummary) models.Role {
	key := Normalize(artistName)
	for _, s := range setlists {
		if sameArtist(s, artistID, key) {
			continue
		}
		if s.SongCount > songCount {
			return models.RoleOpener
		}
	}
	return models.RoleHeadliner
}

func sameArtist(s models.SetlistSummary, artistID int64, key string) bool {
	if s.ArtistID != 0 && artistID != 0 {
		return s.ArtistID == artistID
	}
	return Normalize(s.ArtistName) == key
}

// DeriveRoles re-bills the whole roster from song counts and reports whether
// any role changed. Every artist tied at the maximum headlines; when nobody has
// songs, position 1 headlines.
func DeriveRoles(entries []models.ArtistEntry, counts SongCounts) bool {
	top := 0
	for _, e := range entries {
		if n := counts.For(e); n > top {
			top = n
		}
	}

	changed := false
	for i := range entries {
		role := models.RoleOpener
		if top == 0 {
			if entries[i].Position == 1 {
				role = models.RoleHeadliner
			}
		} else if counts.For(entries[i]) == top {
			role = models.RoleHeadliner
		}
		if entries[i].Role != role {
			entries[i].Role = role
			changed = true
		}
	}
	return changed
}
