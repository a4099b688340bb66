package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"earplugs/internal/reconcile"
	"earplugs/shared/go/models"
)

// Store defines the persistence operations required by the search handler.
type Store interface {
	Search(ctx context.Context, query string, limit int) (Results, error)
}

// Results captures the different result buckets surfaced by the handler.
type Results struct {
	Artists  []ArtistResult
	Concerts []ConcertResult
}

// ArtistResult summarises an artist match.
type ArtistResult struct {
	ID           int64
	Slug         string
	Name         string
	ConcertCount int
}

// ConcertResult summarises a concert match.
type ConcertResult struct {
	ID         int64
	Date       time.Time
	VenueName  string
	TourName   string
	Headliners []string
	Href       string
}

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a Store backed by the supplied database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Search looks the query up in artist names and in concert venues, tours and bills.
func (s *PGStore) Search(ctx context.Context, query string, limit int) (Results, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + escapeLike(query) + "%"

	artists, err := s.fetchArtists(ctx, like, limit)
	if err != nil {
		return Results{}, err
	}

	concerts, err := s.fetchConcerts(ctx, like, limit)
	if err != nil {
		return Results{}, err
	}

	return Results{
		Artists:  artists,
		Concerts: concerts,
	}, nil
}

func (s *PGStore) fetchArtists(ctx context.Context, like string, limit int) ([]ArtistResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.canonical_name, COUNT(c.id) AS concert_count
		FROM artists a
		LEFT JOIN concerts c
			ON c.artists @> jsonb_build_array(jsonb_build_object('artist_id', a.id))
		WHERE a.canonical_name ILIKE $1
		GROUP BY a.id, a.canonical_name
		ORDER BY concert_count DESC, a.canonical_name ASC
		LIMIT $2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search artists: %w", err)
	}
	defer rows.Close()

	results := make([]ArtistResult, 0)
	for rows.Next() {
		var r ArtistResult
		if err := rows.Scan(&r.ID, &r.Name, &r.ConcertCount); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		r.Slug = reconcile.Slug(r.Name)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}

	return results, nil
}

func (s *PGStore) fetchConcerts(ctx context.Context, like string, limit int) ([]ConcertResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.date, c.venue_name, c.tour_name, c.artists
		FROM concerts c
		WHERE c.venue_name ILIKE $1
			OR c.tour_name ILIKE $1
			OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(c.artists) e
				WHERE e->>'artist_name' ILIKE $1
			)
		ORDER BY c.date DESC, c.id DESC
		LIMIT $2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search concerts: %w", err)
	}
	defer rows.Close()

	results := make([]ConcertResult, 0)
	for rows.Next() {
		var (
			c       models.Concert
			artists []byte
		)
		if err := rows.Scan(&c.ID, &c.Date, &c.VenueName, &c.TourName, &artists); err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		if len(artists) > 0 {
			if err := json.Unmarshal(artists, &c.Artists); err != nil {
				return nil, fmt.Errorf("decode artists for concert %d: %w", c.ID, err)
			}
		}

		var headliners []string
		for _, a := range c.Headliners() {
			headliners = append(headliners, a.ArtistName)
		}

		results = append(results, ConcertResult{
			ID:         c.ID,
			Date:       c.Date,
			VenueName:  c.VenueName,
			TourName:   c.TourName,
			Headliners: headliners,
			Href:       "/api/v1/concerts/" + strconv.FormatInt(c.ID, 10),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concerts: %w", err)
	}

	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
