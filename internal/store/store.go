package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"earplugs/shared/go/models"
)

var (
	// ErrConcertNotFound is returned when no concert has the requested id.
	ErrConcertNotFound = errors.New("concert not found")
	// ErrConcurrentUpdate signals that another writer changed the concert first.
	ErrConcurrentUpdate = errors.New("concert was modified concurrently")
	// ErrSubmissionNotFound is returned when no submission has the requested id.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConcertTx is the view of the store a single reconciliation pass works through.
// Everything done through it commits together or not at all.
type ConcertTx interface {
	LoadConcert(ctx context.Context, id int64) (*models.Concert, error)
	ListSetlistSummaries(ctx context.Context, concertID int64) ([]models.SetlistSummary, error)
	UpsertSetlist(ctx context.Context, setlist *models.Setlist) error
	ResolveArtist(ctx context.Context, name, mbid string) (int64, error)
	SaveConcert(ctx context.Context, concert *models.Concert) error
}

// WithConcertTx runs fn inside a transaction and commits when it returns nil.
func (s *Store) WithConcertTx(ctx context.Context, fn func(ctx context.Context, tx ConcertTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &concertTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return ErrConcurrentUpdate
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

type concertTx struct {
	q queryer
}

func (t *concertTx) LoadConcert(ctx context.Context, id int64) (*models.Concert, error) {
	return getConcert(ctx, t.q, id)
}

func (t *concertTx) ListSetlistSummaries(ctx context.Context, concertID int64) ([]models.SetlistSummary, error) {
	return listSetlistSummaries(ctx, t.q, concertID)
}

func (t *concertTx) UpsertSetlist(ctx context.Context, setlist *models.Setlist) error {
	return upsertSetlist(ctx, t.q, setlist)
}

func (t *concertTx) ResolveArtist(ctx context.Context, name, mbid string) (int64, error) {
	return resolveArtist(ctx, t.q, name, mbid)
}

func (t *concertTx) SaveConcert(ctx context.Context, concert *models.Concert) error {
	return saveConcert(ctx, t.q, concert)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
