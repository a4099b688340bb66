package concerts

import (
	"context"
	"sort"

	"earplugs/internal/reconcile"
	"earplugs/internal/store"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Store defines persistence operations for concerts
type Store interface {
	GetConcert(ctx context.Context, id int64) (*models.Concert, error)
	ListConcerts(ctx context.Context, limit int) ([]*models.Concert, error)
	ListSetlists(ctx context.Context, concertID int64) ([]*models.Setlist, error)
	WithConcertTx(ctx context.Context, fn func(ctx context.Context, tx store.ConcertTx) error) error
}

// CleanupResult reports the entries a cleanup removed, or would remove on a dry run.
type CleanupResult struct {
	Concert      *models.Concert      `json:"concert"`
	Removed      []models.ArtistEntry `json:"removed"`
	RolesChanged bool                 `json:"roles_changed"`
	DryRun       bool                 `json:"dry_run"`
}

// Service coordinates concert-related operations
type Service interface {
	Get(ctx context.Context, id int64) (*models.Concert, error)
	List(ctx context.Context, limit int) ([]*models.Concert, error)
	Setlists(ctx context.Context, concertID int64) ([]*models.Setlist, error)
	Cleanup(ctx context.Context, id int64, dryRun bool) (*CleanupResult, error)
}

type service struct {
	store Store
}

// New constructs a concerts Service
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Get(ctx context.Context, id int64) (*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetConcert(ctx, id)
}

func (s *service) List(ctx context.Context, limit int) ([]*models.Concert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListConcerts(ctx, limit)
}

func (s *service) Setlists(ctx context.Context, concertID int64) ([]*models.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetConcert(ctx, concertID); err != nil {
		return nil, err
	}
	return s.store.ListSetlists(ctx, concertID)
}

// Cleanup removes combined billing entries whose artists are already on the
// bill, renumbers the roster and re-derives roles from the recorded setlists.
func (s *service) Cleanup(ctx context.Context, id int64, dryRun bool) (*CleanupResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res *CleanupResult
	err := s.store.WithConcertTx(ctx, func(ctx context.Context, tx store.ConcertTx) error {
		concert, err := tx.LoadConcert(ctx, id)
		if err != nil {
			return err
		}

		roster := concert.CloneArtists()
		sort.SliceStable(roster, func(i, j int) bool { return roster[i].Position < roster[j].Position })

		kept, removed := reconcile.CleanupMalformed(roster)
		res = &CleanupResult{Removed: removed, DryRun: dryRun}
		if len(removed) == 0 {
			res.Concert = concert
			return nil
		}

		summaries, err := tx.ListSetlistSummaries(ctx, concert.ID)
		if err != nil {
			return err
		}
		res.RolesChanged = reconcile.DeriveRoles(kept, reconcile.MaxSongCounts(summaries))

		concert.Artists = kept
		res.Concert = concert
		if dryRun {
			return nil
		}

		if err := tx.SaveConcert(ctx, concert); err != nil {
			return err
		}
		logging.WithContext(ctx).Info().
			Int64("concert_id", concert.ID).
			Int("removed", len(removed)).
			Msg("removed malformed artist entries")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
