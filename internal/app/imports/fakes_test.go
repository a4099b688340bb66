package imports

import (
	"context"
	"fmt"
	"sync"

	"earplugs/internal/setlistfm"
	"earplugs/internal/store"
	"earplugs/shared/go/models"
)

// fakeStore keeps committed state in memory. Writes made through a
// transaction are staged and only applied when the callback succeeds.
type fakeStore struct {
	mu          sync.Mutex
	concerts    map[int64]*models.Concert
	setlists    map[string]models.Setlist
	artists     map[string]int64
	submissions map[int64]*models.Submission

	conflicts int // SaveConcert fails this many times before succeeding
	txCount   int
	saves     int
}

func newFakeStore(concerts ...*models.Concert) *fakeStore {
	fs := &fakeStore{
		concerts:    make(map[int64]*models.Concert),
		setlists:    make(map[string]models.Setlist),
		artists:     make(map[string]int64),
		submissions: make(map[int64]*models.Submission),
	}
	for _, c := range concerts {
		if c.Version == 0 {
			c.Version = 1
		}
		fs.concerts[c.ID] = c
	}
	return fs
}

func (f *fakeStore) concert(id int64) *models.Concert {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *f.concerts[id]
	c.Artists = f.concerts[id].CloneArtists()
	return &c
}

func (f *fakeStore) addSetlist(concertID int64, artist string, songs int) {
	id := fmt.Sprintf("%d-%s", concertID, artist)
	f.setlists[id] = models.Setlist{ID: id, ConcertID: concertID, ArtistName: artist, SongCount: songs}
}

func (f *fakeStore) WithConcertTx(ctx context.Context, fn func(ctx context.Context, tx store.ConcertTx) error) error {
	f.mu.Lock()
	f.txCount++
	f.mu.Unlock()

	tx := &fakeTx{
		s:        f,
		setlists: make(map[string]models.Setlist),
		artists:  make(map[string]int64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sl := range tx.setlists {
		f.setlists[id] = sl
	}
	for name, id := range tx.artists {
		f.artists[name] = id
	}
	if tx.saved != nil {
		f.concerts[tx.saved.ID] = tx.saved
		f.saves++
	}
	return nil
}

type fakeTx struct {
	s        *fakeStore
	setlists map[string]models.Setlist
	artists  map[string]int64
	saved    *models.Concert
}

func (t *fakeTx) LoadConcert(_ context.Context, id int64) (*models.Concert, error) {
	t.s.mu.Lock()
	_, ok := t.s.concerts[id]
	t.s.mu.Unlock()
	if !ok {
		return nil, store.ErrConcertNotFound
	}
	return t.s.concert(id), nil
}

func (t *fakeTx) ListSetlistSummaries(_ context.Context, concertID int64) ([]models.SetlistSummary, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	var out []models.SetlistSummary
	for _, sl := range t.s.setlists {
		if _, staged := t.setlists[sl.ID]; staged {
			continue
		}
		if sl.ConcertID == concertID {
			out = append(out, summaryOf(sl))
		}
	}
	for _, sl := range t.setlists {
		if sl.ConcertID == concertID {
			out = append(out, summaryOf(sl))
		}
	}
	return out, nil
}

func summaryOf(sl models.Setlist) models.SetlistSummary {
	sum := models.SetlistSummary{ArtistName: sl.ArtistName, SongCount: sl.SongCount}
	if sl.ArtistID != nil {
		sum.ArtistID = *sl.ArtistID
	}
	return sum
}

func (t *fakeTx) UpsertSetlist(_ context.Context, sl *models.Setlist) error {
	t.setlists[sl.ID] = *sl
	return nil
}

func (t *fakeTx) ResolveArtist(_ context.Context, name, _ string) (int64, error) {
	if id, ok := t.artists[name]; ok {
		return id, nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if id, ok := t.s.artists[name]; ok {
		return id, nil
	}
	id := int64(100 + len(t.s.artists) + len(t.artists) + 1)
	t.artists[name] = id
	return id, nil
}

func (t *fakeTx) SaveConcert(_ context.Context, c *models.Concert) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.conflicts > 0 {
		t.s.conflicts--
		return store.ErrConcurrentUpdate
	}
	if t.s.concerts[c.ID].Version != c.Version {
		return store.ErrConcurrentUpdate
	}

	c.Version++
	saved := *c
	saved.Artists = c.CloneArtists()
	t.saved = &saved
	return nil
}

func (f *fakeStore) CreateSubmission(_ context.Context, sub *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = int64(len(f.submissions) + 1)
	sub.Status = models.SubmissionPending
	stored := *sub
	f.submissions[sub.ID] = &stored
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id int64) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, store.ErrSubmissionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeStore) MarkApproved(_ context.Context, id int64) error {
	return f.updateSubmission(id, func(s *models.Submission) { s.Status = models.SubmissionApproved })
}

func (f *fakeStore) MarkProcessed(_ context.Context, id int64) error {
	return f.updateSubmission(id, func(s *models.Submission) {
		s.Processed = true
		s.ImportError = ""
	})
}

func (f *fakeStore) RecordImportError(_ context.Context, id int64, message string) error {
	return f.updateSubmission(id, func(s *models.Submission) { s.ImportError = message })
}

func (f *fakeStore) updateSubmission(id int64, fn func(*models.Submission)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return store.ErrSubmissionNotFound
	}
	fn(sub)
	return nil
}

type fakeFetcher struct {
	setlists  map[string]setlistfm.Setlist
	search    []setlistfm.Setlist
	searchErr error
}

func (f *fakeFetcher) Setlist(_ context.Context, id string) (*setlistfm.Setlist, error) {
	sl, ok := f.setlists[id]
	if !ok {
		return nil, setlistfm.ErrNotFound
	}
	return &sl, nil
}

func (f *fakeFetcher) SearchByVenueDate(_ context.Context, _, _ string) ([]setlistfm.Setlist, error) {
	return f.search, f.searchErr
}

func songsNamed(n int) []models.Song {
	songs := make([]models.Song, n)
	for i := range songs {
		songs[i] = models.Song{Position: i + 1, Name: fmt.Sprintf("Song %d", i+1), SetName: "Main Set"}
	}
	return songs
}

func setlistWith(id, artist string, n int) setlistfm.Setlist {
	set := setlistfm.Set{}
	for i := 0; i < n; i++ {
		set.Song = append(set.Song, setlistfm.Song{Name: fmt.Sprintf("Song %d", i+1)})
	}
	return setlistfm.Setlist{
		ID:        id,
		EventDate: "23-06-2018",
		Artist:    setlistfm.Artist{Name: artist},
		Venue:     setlistfm.Venue{ID: "3bd6bc5c", Name: "Red Rocks Amphitheatre"},
		Sets:      setlistfm.Sets{Set: []setlistfm.Set{set}},
	}
}
