package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"earplugs/shared/go/models"
)

const concertColumns = `
		id, date, venue_id, venue_name, artists, has_setlist,
		setlist_status, tour_name, version, created_at, updated_at`

// GetConcert retrieves a single concert by ID
func (s *Store) GetConcert(ctx context.Context, id int64) (*models.Concert, error) {
	return getConcert(ctx, s.db, id)
}

// ListConcerts returns the most recent concerts first
func (s *Store) ListConcerts(ctx context.Context, limit int) ([]*models.Concert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+concertColumns+`
		FROM concerts
		ORDER BY date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select concerts: %w", err)
	}
	defer rows.Close()

	var concerts []*models.Concert
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, err
		}
		concerts = append(concerts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concerts: %w", err)
	}

	return concerts, nil
}

// SaveConcert writes the mutable fields of a concert the caller loaded earlier.
func (s *Store) SaveConcert(ctx context.Context, concert *models.Concert) error {
	return saveConcert(ctx, s.db, concert)
}

func getConcert(ctx context.Context, q queryer, id int64) (*models.Concert, error) {
	row := q.QueryRowContext(ctx, `
		SELECT`+concertColumns+`
		FROM concerts
		WHERE id = $1
	`, id)

	c, err := scanConcert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConcertNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcert(row rowScanner) (*models.Concert, error) {
	var (
		c       models.Concert
		venueID sql.NullInt64
		artists []byte
		status  string
	)

	err := row.Scan(
		&c.ID, &c.Date, &venueID, &c.VenueName, &artists, &c.HasSetlist,
		&status, &c.TourName, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan concert: %w", err)
	}

	if venueID.Valid {
		c.VenueID = &venueID.Int64
	}
	c.SetlistStatus = models.SetlistStatus(status)
	if len(artists) > 0 {
		if err := json.Unmarshal(artists, &c.Artists); err != nil {
			return nil, fmt.Errorf("decode artists for concert %d: %w", c.ID, err)
		}
	}

	return &c, nil
}

// saveConcert updates the concert only if nobody else has since the caller
// loaded it; on success concert.Version is advanced to match the row.
func saveConcert(ctx context.Context, q queryer, concert *models.Concert) error {
	artists := concert.Artists
	if artists == nil {
		artists = []models.ArtistEntry{}
	}
	payload, err := json.Marshal(artists)
	if err != nil {
		return fmt.Errorf("encode artists: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		UPDATE concerts
		SET artists = $1, has_setlist = $2, setlist_status = $3, tour_name = $4,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`, payload, concert.HasSetlist, string(concert.SetlistStatus), concert.TourName,
		concert.ID, concert.Version,
	).Scan(&concert.Version, &concert.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConcurrentUpdate
	}
	if err != nil {
		if isSerializationFailure(err) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("update concert: %w", err)
	}

	return nil
}
