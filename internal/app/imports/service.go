// Package imports runs setlist imports through the reconciliation engine and
// persists the result.
package imports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"earplugs/internal/reconcile"
	"earplugs/internal/setlistfm"
	"earplugs/internal/store"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

// ErrInvalidImport is returned before anything is written when an import
// cannot be applied.
var ErrInvalidImport = errors.New("invalid import")

// ErrSetlistFMDisabled is returned by setlist.fm lookups when no API key is configured.
var ErrSetlistFMDisabled = errors.New("setlist.fm client is not configured")

// Store defines the persistence operations the import workflow needs
type Store interface {
	WithConcertTx(ctx context.Context, fn func(ctx context.Context, tx store.ConcertTx) error) error
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, id int64) (*models.Submission, error)
	MarkApproved(ctx context.Context, id int64) error
	MarkProcessed(ctx context.Context, id int64) error
	RecordImportError(ctx context.Context, id int64, message string) error
}

// SetlistFetcher reads setlists from setlist.fm
type SetlistFetcher interface {
	Setlist(ctx context.Context, id string) (*setlistfm.Setlist, error)
	SearchByVenueDate(ctx context.Context, venueID, date string) ([]setlistfm.Setlist, error)
}

// Event is one artist's setlist arriving for a concert.
type Event struct {
	ConcertID    int64
	ArtistName   string
	ArtistMBID   string
	TourName     string
	SetlistFMID  string
	SetlistFMURL string
	Songs        []models.Song
	HasEncore    bool
}

// Result reports what an import did.
type Result struct {
	ConcertID int64             `json:"concert_id"`
	SetlistID string            `json:"setlist_id,omitempty"`
	SongCount int               `json:"song_count"`
	Outcome   reconcile.Outcome `json:"outcome"`
	Concert   *models.Concert   `json:"concert"`
	Attempts  int               `json:"attempts"`
}

// Options tunes the retry of passes that lost a race with another writer.
type Options struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Service exposes the import workflows.
type Service interface {
	Import(ctx context.Context, ev Event) (*Result, error)
	ImportSetlist(ctx context.Context, concertID int64, sl setlistfm.Setlist) (*Result, error)
	ImportFromSetlistFM(ctx context.Context, concertID int64, setlistID string, multiArtist bool) ([]*Result, error)
	Submit(ctx context.Context, userID int64, req SubmissionRequest) (*models.Submission, error)
	ProcessSubmission(ctx context.Context, id int64) (*Result, error)
}

type service struct {
	store   Store
	fetcher SetlistFetcher // Optional: nil disables setlist.fm lookups
	opts    Options
}

// New wires a Service. fetcher may be nil when no setlist.fm key is configured.
func New(store Store, fetcher SetlistFetcher, opts Options) Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &service{store: store, fetcher: fetcher, opts: opts}
}

func (s *service) Import(ctx context.Context, ev Event) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev.ArtistName = strings.TrimSpace(ev.ArtistName)
	if ev.ConcertID <= 0 {
		return nil, fmt.Errorf("%w: concert id must be positive", ErrInvalidImport)
	}
	if ev.ArtistName == "" {
		return nil, fmt.Errorf("%w: artist name is required", ErrInvalidImport)
	}

	log := logging.WithContext(ctx).With().
		Int64("concert_id", ev.ConcertID).
		Str("artist", ev.ArtistName).
		Logger()

	for attempt := 1; ; attempt++ {
		res, err := s.importOnce(ctx, ev)
		if err == nil {
			res.Attempts = attempt
			log.Info().
				Str("action", string(res.Outcome.Action)).
				Int("songs", res.SongCount).
				Int("attempts", attempt).
				Msg("imported setlist")
			return res, nil
		}

		if !errors.Is(err, store.ErrConcurrentUpdate) || attempt >= s.opts.MaxAttempts {
			return nil, err
		}

		log.Warn().Int("attempt", attempt).Msg("concert changed during import, retrying")
		if err := wait(ctx, s.opts.RetryBackoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
}

// importOnce runs a single pass inside one transaction.
func (s *service) importOnce(ctx context.Context, ev Event) (*Result, error) {
	var res *Result

	err := s.store.WithConcertTx(ctx, func(ctx context.Context, tx store.ConcertTx) error {
		concert, err := tx.LoadConcert(ctx, ev.ConcertID)
		if err != nil {
			return err
		}

		summaries, err := tx.ListSetlistSummaries(ctx, concert.ID)
		if err != nil {
			return err
		}

		imp := reconcile.Import{
			ArtistName: ev.ArtistName,
			ArtistMBID: ev.ArtistMBID,
			TourName:   ev.TourName,
			SongCount:  len(ev.Songs),
		}
		out, err := reconcile.Apply(ctx, concert, summaries, imp, tx)
		if err != nil {
			return err
		}

		res = &Result{ConcertID: concert.ID, SongCount: len(ev.Songs), Outcome: out}

		if len(ev.Songs) > 0 {
			sl := &models.Setlist{
				ID:           reconcile.SetlistID(concert.ID, ev.ArtistName),
				ConcertID:    concert.ID,
				ArtistName:   ev.ArtistName,
				TourName:     ev.TourName,
				SetlistFMID:  ev.SetlistFMID,
				SetlistFMURL: ev.SetlistFMURL,
				Songs:        ev.Songs,
				SongCount:    len(ev.Songs),
				HasEncore:    ev.HasEncore,
			}
			if out.Entry.ArtistID > 0 {
				id := out.Entry.ArtistID
				sl.ArtistID = &id
			}
			if err := tx.UpsertSetlist(ctx, sl); err != nil {
				return err
			}
			res.SetlistID = sl.ID
		}

		if out.Changed {
			if err := tx.SaveConcert(ctx, concert); err != nil {
				return err
			}
		}
		res.Concert = concert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) ImportSetlist(ctx context.Context, concertID int64, sl setlistfm.Setlist) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Import(ctx, eventFromSetlist(concertID, sl))
}

func (s *service) ImportFromSetlistFM(ctx context.Context, concertID int64, setlistID string, multiArtist bool) ([]*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fetcher == nil {
		return nil, ErrSetlistFMDisabled
	}
	setlistID = strings.TrimSpace(setlistID)
	if setlistID == "" {
		return nil, fmt.Errorf("%w: setlist id is required", ErrInvalidImport)
	}

	primary, err := s.fetcher.Setlist(ctx, setlistID)
	if err != nil {
		return nil, fmt.Errorf("fetch setlist %s: %w", setlistID, err)
	}

	setlists := []setlistfm.Setlist{*primary}
	if multiArtist {
		setlists = s.sameShow(ctx, *primary)
	}

	results := make([]*Result, 0, len(setlists))
	for _, sl := range setlists {
		res, err := s.ImportSetlist(ctx, concertID, sl)
		if err != nil {
			return results, fmt.Errorf("import %s setlist: %w", sl.Artist.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// sameShow finds every setlist recorded at the primary's venue and date,
// largest first so headliners are billed before openers. Detection failures
// fall back to the primary alone.
func (s *service) sameShow(ctx context.Context, primary setlistfm.Setlist) []setlistfm.Setlist {
	if primary.Venue.ID == "" || primary.EventDate == "" {
		return []setlistfm.Setlist{primary}
	}

	found, err := s.fetcher.SearchByVenueDate(ctx, primary.Venue.ID, primary.EventDate)
	if err != nil || len(found) == 0 {
		logging.WithContext(ctx).Warn().Err(err).
			Str("venue_id", primary.Venue.ID).
			Str("date", primary.EventDate).
			Msg("multi-artist detection failed, importing single setlist")
		return []setlistfm.Setlist{primary}
	}

	seen := false
	for _, sl := range found {
		if sl.ID == primary.ID {
			seen = true
			break
		}
	}
	if !seen {
		found = append(found, primary)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].SongCount() > found[j].SongCount() })
	return found
}

func eventFromSetlist(concertID int64, sl setlistfm.Setlist) Event {
	songs, hasEncore := setlistfm.ParseSongs(sl)
	return Event{
		ConcertID:    concertID,
		ArtistName:   sl.Artist.Name,
		ArtistMBID:   sl.Artist.MBID,
		TourName:     sl.TourName(),
		SetlistFMID:  sl.ID,
		SetlistFMURL: sl.URL,
		Songs:        songs,
		HasEncore:    hasEncore,
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
