package store

import (
	"context"
	"fmt"
	"strings"
)

// ResolveArtist returns the id of the artist with exactly this canonical name,
// creating the record when it does not exist. A known MBID is filled in but
// never overwritten.
func (s *Store) ResolveArtist(ctx context.Context, name, mbid string) (int64, error) {
	return resolveArtist(ctx, s.db, name, mbid)
}

func resolveArtist(ctx context.Context, q queryer, name, mbid string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("artist name is required")
	}

	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO artists (canonical_name, mbid)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (canonical_name)
		DO UPDATE SET mbid = COALESCE(artists.mbid, EXCLUDED.mbid)
		RETURNING id
	`, name, strings.TrimSpace(mbid)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolve artist %q: %w", name, err)
	}
	return id, nil
}
