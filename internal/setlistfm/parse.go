package setlistfm

import "earplugs/shared/go/models"

const defaultSetName = "Main Set"

// ParseSongs flattens the sets of a setlist into songs numbered 1..n and
// reports whether any set was an encore.
func ParseSongs(s Setlist) ([]models.Song, bool) {
	var (
		songs     []models.Song
		hasEncore bool
	)

	for _, set := range s.Sets.Set {
		name := set.Name
		if name == "" {
			name = defaultSetName
		}
		if set.Encore > 0 {
			hasEncore = true
		}

		for _, song := range set.Song {
			parsed := models.Song{
				Position: len(songs) + 1,
				Name:     song.Name,
				SetName:  name,
				Encore:   set.Encore,
				IsCover:  song.Cover != nil,
				IsTape:   song.Tape,
				Info:     song.Info,
			}
			if song.Cover != nil {
				parsed.CoverArtist = song.Cover.Name
			}
			songs = append(songs, parsed)
		}
	}

	return songs, hasEncore
}
