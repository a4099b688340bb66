package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"earplugs/shared/go/models"
)

// ListSetlists returns every setlist recorded for a concert
func (s *Store) ListSetlists(ctx context.Context, concertID int64) ([]*models.Setlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, concert_id, artist_id, artist_name, tour_name, setlistfm_id,
		       setlistfm_url, songs, song_count, has_encore, fetched_at
		FROM setlists
		WHERE concert_id = $1
		ORDER BY song_count DESC, artist_name ASC
	`, concertID)
	if err != nil {
		return nil, fmt.Errorf("select setlists: %w", err)
	}
	defer rows.Close()

	var setlists []*models.Setlist
	for rows.Next() {
		var (
			sl       models.Setlist
			artistID sql.NullInt64
			songs    []byte
		)
		if err := rows.Scan(
			&sl.ID, &sl.ConcertID, &artistID, &sl.ArtistName, &sl.TourName, &sl.SetlistFMID,
			&sl.SetlistFMURL, &songs, &sl.SongCount, &sl.HasEncore, &sl.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan setlist: %w", err)
		}
		if artistID.Valid {
			sl.ArtistID = &artistID.Int64
		}
		if len(songs) > 0 {
			if err := json.Unmarshal(songs, &sl.Songs); err != nil {
				return nil, fmt.Errorf("decode songs for setlist %s: %w", sl.ID, err)
			}
		}
		setlists = append(setlists, &sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlists: %w", err)
	}

	return setlists, nil
}

// ListSetlistSummaries returns artist and song count for each setlist at a concert
func (s *Store) ListSetlistSummaries(ctx context.Context, concertID int64) ([]models.SetlistSummary, error) {
	return listSetlistSummaries(ctx, s.db, concertID)
}

func listSetlistSummaries(ctx context.Context, q queryer, concertID int64) ([]models.SetlistSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT artist_id, artist_name, song_count
		FROM setlists
		WHERE concert_id = $1
	`, concertID)
	if err != nil {
		return nil, fmt.Errorf("select setlist summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.SetlistSummary
	for rows.Next() {
		var (
			s        models.SetlistSummary
			artistID sql.NullInt64
		)
		if err := rows.Scan(&artistID, &s.ArtistName, &s.SongCount); err != nil {
			return nil, fmt.Errorf("scan setlist summary: %w", err)
		}
		s.ArtistID = artistID.Int64
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlist summaries: %w", err)
	}

	return summaries, nil
}

// upsertSetlist writes the setlist under its derived id, replacing a previous import.
func upsertSetlist(ctx context.Context, q queryer, sl *models.Setlist) error {
	songs := sl.Songs
	if songs == nil {
		songs = []models.Song{}
	}
	payload, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("encode songs: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO setlists (id, concert_id, artist_id, artist_name, tour_name, setlistfm_id,
		                      setlistfm_url, songs, song_count, has_encore, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET artist_id = EXCLUDED.artist_id, artist_name = EXCLUDED.artist_name,
		    tour_name = EXCLUDED.tour_name, setlistfm_id = EXCLUDED.setlistfm_id,
		    setlistfm_url = EXCLUDED.setlistfm_url, songs = EXCLUDED.songs,
		    song_count = EXCLUDED.song_count, has_encore = EXCLUDED.has_encore,
		    fetched_at = EXCLUDED.fetched_at
		RETURNING fetched_at
	`, sl.ID, sl.ConcertID, sl.ArtistID, sl.ArtistName, sl.TourName, sl.SetlistFMID,
		sl.SetlistFMURL, payload, sl.SongCount, sl.HasEncore,
	).Scan(&sl.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert setlist %s: %w", sl.ID, err)
	}
	return nil
}
