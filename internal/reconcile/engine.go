package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

// Import is the artist side of one setlist import.
type Import struct {
	ArtistName string
	ArtistMBID string
	TourName   string
	SongCount  int
}

// Action says how the imported artist related to the existing roster.
type Action string

const (
	// ActionExisting means the artist was already billed under the same name or MBID.
	ActionExisting Action = "existing"
	// ActionVariant means the artist was billed under a spelling variant, now corrected.
	ActionVariant Action = "variant"
	// ActionAdded means the artist was appended to the roster.
	ActionAdded Action = "added"
)

// Outcome describes what Apply did to a concert.
type Outcome struct {
	Action       Action               `json:"action"`
	Entry        models.ArtistEntry   `json:"entry"`
	PreviousName string               `json:"previous_name,omitempty"`
	Removed      []models.ArtistEntry `json:"removed,omitempty"`
	RolesChanged bool                 `json:"roles_changed"`
	// Changed is set when the concert differs from what was loaded and must be saved.
	Changed bool `json:"changed"`
}

// ArtistResolver finds or creates the global artist record for a name.
type ArtistResolver interface {
	ResolveArtist(ctx context.Context, name, mbid string) (int64, error)
}

// Apply reconciles imp into concert in place. setlists must hold every setlist
// recorded for the concert; the imported count is folded in even if its own
// setlist is not among them.
//
// Apply is safe to repeat: a second run with the same import finds the artist by
// exact name and only touches concert-level fields that are already set.
func Apply(ctx context.Context, concert *models.Concert, setlists []models.SetlistSummary, imp Import, artists ArtistResolver) (Outcome, error) {
	name := strings.TrimSpace(imp.ArtistName)
	mbid := strings.TrimSpace(imp.ArtistMBID)

	roster := concert.CloneArtists()
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].Position < roster[j].Position })

	var out Outcome
	log := logging.WithContext(ctx).With().Int64("concert_id", concert.ID).Str("artist", name).Logger()

	if i := findExisting(roster, name, mbid); i >= 0 {
		out.Action = ActionExisting
		out.Entry = roster[i]
	} else if i := findVariant(roster, name); i >= 0 {
		out.Action = ActionVariant
		out.PreviousName = roster[i].ArtistName
		roster[i].ArtistName = name
		if roster[i].ArtistMBID == "" && mbid != "" {
			roster[i].ArtistMBID = mbid
		}
		out.Entry = roster[i]
		out.Changed = true
		log.Info().Str("previous_name", out.PreviousName).Msg("corrected artist name variant")
	} else {
		id, err := artists.ResolveArtist(ctx, name, mbid)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve artist %q: %w", name, err)
		}

		entry := models.ArtistEntry{
			ArtistID:   id,
			ArtistName: name,
			ArtistMBID: mbid,
			Role:       InitialRole(id, name, imp.SongCount, setlists),
			Position:   len(roster) + 1,
		}
		roster = append(roster, entry)

		counts := MaxSongCounts(setlists)
		counts.observe(id, name, imp.SongCount)
		out.RolesChanged = DeriveRoles(roster, counts)

		roster, out.Removed = CleanupMalformed(roster)
		if len(out.Removed) > 0 && DeriveRoles(roster, counts) {
			out.RolesChanged = true
		}

		out.Action = ActionAdded
		out.Entry = findEntry(roster, out.Removed, id, name)
		out.Changed = true
		log.Info().
			Str("role", string(out.Entry.Role)).
			Int("position", out.Entry.Position).
			Int("removed", len(out.Removed)).
			Msg("added artist to concert")
	}

	concert.Artists = roster
	if applyConcertFields(concert, imp) {
		out.Changed = true
	}
	return out, nil
}

// findExisting matches by exact name or by MusicBrainz id.
func findExisting(roster []models.ArtistEntry, name, mbid string) int {
	for i, e := range roster {
		if e.ArtistName == name || (mbid != "" && e.ArtistMBID == mbid) {
			return i
		}
	}
	return -1
}

// findVariant looks for a single-artist entry similar to name. A combined entry
// is only passed over when name is literally one of its parts: "Steve Miller
// Band" must not match "Steve Miller Band with Dave Mason", while "Grahame Lesh &
// Friends" is a variant of "GLAF - Grahame Lesh & Friends".
func findVariant(roster []models.ArtistEntry, name string) int {
	key := Normalize(name)
	for i, e := range roster {
		if isPartOf(key, e.ArtistName) {
			continue
		}
		if Similar(e.ArtistName, name) {
			return i
		}
	}
	return -1
}

func isPartOf(key, combined string) bool {
	parts := SplitCombined(combined)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if Normalize(p) == key {
			return true
		}
	}
	return false
}

func findEntry(kept, removed []models.ArtistEntry, id int64, name string) models.ArtistEntry {
	for _, list := range [][]models.ArtistEntry{kept, removed} {
		for _, e := range list {
			if e.ArtistID == id && e.ArtistName == name {
				return e
			}
		}
	}
	return models.ArtistEntry{}
}

// applyConcertFields records what the import says about the concert's setlist.
func applyConcertFields(concert *models.Concert, imp Import) bool {
	changed := false
	if imp.SongCount > 0 {
		if !concert.HasSetlist || concert.SetlistStatus != models.SetlistStatusHasSetlist {
			concert.HasSetlist = true
			concert.SetlistStatus = models.SetlistStatusHasSetlist
			changed = true
		}
	} else if concert.SetlistStatus == "" || concert.SetlistStatus == models.SetlistStatusNotResearched {
		concert.SetlistStatus = models.SetlistStatusVerifiedNone
		changed = true
	}

	if tour := strings.TrimSpace(imp.TourName); tour != "" && concert.TourName == "" {
		concert.TourName = tour
		changed = true
	}
	return changed
}
