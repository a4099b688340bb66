package imports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earplugs/internal/reconcile"
	"earplugs/internal/setlistfm"
	"earplugs/internal/store"
	"earplugs/shared/go/models"
)

func panicConcert() *models.Concert {
	return &models.Concert{
		ID: 1,
		Artists: []models.ArtistEntry{
			{ArtistID: 1, ArtistName: "Widespread Panic", Role: models.RoleHeadliner, Position: 1},
		},
		HasSetlist:    true,
		SetlistStatus: models.SetlistStatusHasSetlist,
	}
}

func TestImportAddsOpener(t *testing.T) {
	fs := newFakeStore(panicConcert())
	fs.addSetlist(1, "Widespread Panic", 20)
	svc := New(fs, nil, Options{MaxAttempts: 3})

	res, err := svc.Import(context.Background(), Event{
		ConcertID:   1,
		ArtistName:  "Keller Williams",
		SetlistFMID: "63de4613",
		Songs:       songsNamed(8),
	})
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionAdded, res.Outcome.Action)
	assert.Equal(t, models.RoleOpener, res.Outcome.Entry.Role)
	assert.Equal(t, 2, res.Outcome.Entry.Position)
	assert.Equal(t, "1-keller-williams", res.SetlistID)
	assert.Equal(t, 1, res.Attempts)

	sl, ok := fs.setlists["1-keller-williams"]
	require.True(t, ok, "setlist not stored")
	require.NotNil(t, sl.ArtistID)
	assert.Equal(t, res.Outcome.Entry.ArtistID, *sl.ArtistID)
	assert.Equal(t, 8, sl.SongCount)

	saved := fs.concert(1)
	assert.Equal(t, int64(2), saved.Version)
	require.Len(t, saved.Artists, 2)
	assert.Equal(t, models.RoleHeadliner, saved.Artists[0].Role)
}

func TestImportKeepsHeadlinerMatchedByMBID(t *testing.T) {
	concert := panicConcert()
	concert.Artists[0].ArtistMBID = "m1"
	fs := newFakeStore(concert)
	svc := New(fs, nil, Options{MaxAttempts: 1})

	res, err := svc.Import(context.Background(), Event{
		ConcertID:  1,
		ArtistName: "Widespread Panic (US)",
		ArtistMBID: "m1",
		Songs:      songsNamed(20),
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionExisting, res.Outcome.Action)

	res, err = svc.Import(context.Background(), Event{ConcertID: 1, ArtistName: "Keller Williams", Songs: songsNamed(8)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOpener, res.Outcome.Entry.Role)

	saved := fs.concert(1)
	require.Len(t, saved.Artists, 2)
	assert.Equal(t, "Widespread Panic", saved.Artists[0].ArtistName)
	assert.Equal(t, models.RoleHeadliner, saved.Artists[0].Role)
	assert.Equal(t, models.RoleOpener, saved.Artists[1].Role)
}

func TestImportRetriesAfterConflict(t *testing.T) {
	fs := newFakeStore(panicConcert())
	fs.conflicts = 1
	svc := New(fs, nil, Options{MaxAttempts: 3, RetryBackoff: time.Millisecond})

	res, err := svc.Import(context.Background(), Event{ConcertID: 1, ArtistName: "Keller Williams", Songs: songsNamed(8)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, fs.txCount)
	assert.Equal(t, 1, fs.saves)
	assert.Len(t, fs.concert(1).Artists, 2)
	assert.Len(t, fs.artists, 1, "failed pass must not leak an artist")
}

func TestImportGivesUpAfterMaxAttempts(t *testing.T) {
	fs := newFakeStore(panicConcert())
	fs.conflicts = 10
	svc := New(fs, nil, Options{MaxAttempts: 2})

	_, err := svc.Import(context.Background(), Event{ConcertID: 1, ArtistName: "Keller Williams", Songs: songsNamed(8)})
	require.ErrorIs(t, err, store.ErrConcurrentUpdate)

	assert.Equal(t, 2, fs.txCount)
	assert.Empty(t, fs.setlists)
	assert.Len(t, fs.concert(1).Artists, 1)
}

func TestImportRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{name: "missing concert", ev: Event{ArtistName: "Phish"}},
		{name: "negative concert", ev: Event{ConcertID: -4, ArtistName: "Phish"}},
		{name: "blank artist", ev: Event{ConcertID: 1, ArtistName: "   "}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore(panicConcert())
			svc := New(fs, nil, Options{MaxAttempts: 3})

			_, err := svc.Import(context.Background(), tc.ev)
			require.ErrorIs(t, err, ErrInvalidImport)
			assert.Zero(t, fs.txCount, "invalid import must not open a transaction")
		})
	}
}

func TestImportUnknownConcert(t *testing.T) {
	svc := New(newFakeStore(), nil, Options{MaxAttempts: 3})

	_, err := svc.Import(context.Background(), Event{ConcertID: 9, ArtistName: "Phish", Songs: songsNamed(3)})
	require.ErrorIs(t, err, store.ErrConcertNotFound)
}

func TestImportWithoutSongsSkipsSetlist(t *testing.T) {
	fs := newFakeStore(&models.Concert{ID: 2, SetlistStatus: models.SetlistStatusNotResearched})
	svc := New(fs, nil, Options{MaxAttempts: 1})

	res, err := svc.Import(context.Background(), Event{ConcertID: 2, ArtistName: "Phish"})
	require.NoError(t, err)

	assert.Empty(t, res.SetlistID)
	assert.Empty(t, fs.setlists)
	saved := fs.concert(2)
	assert.Equal(t, models.SetlistStatusVerifiedNone, saved.SetlistStatus)
	assert.False(t, saved.HasSetlist)
	require.Len(t, saved.Artists, 1)
	assert.Equal(t, models.RoleHeadliner, saved.Artists[0].Role)
}

func TestImportTwiceIsStable(t *testing.T) {
	fs := newFakeStore(panicConcert())
	svc := New(fs, nil, Options{MaxAttempts: 1})
	ev := Event{ConcertID: 1, ArtistName: "Keller Williams", TourName: "Summer 2018", Songs: songsNamed(8)}

	_, err := svc.Import(context.Background(), ev)
	require.NoError(t, err)
	first := fs.concert(1)

	res, err := svc.Import(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, reconcile.ActionExisting, res.Outcome.Action)
	assert.False(t, res.Outcome.Changed)
	assert.Equal(t, first, fs.concert(1))
	assert.Equal(t, 1, fs.saves)
	assert.Len(t, fs.setlists, 1)
}

func TestImportFromSetlistFMMultiArtist(t *testing.T) {
	fs := newFakeStore(&models.Concert{ID: 3, SetlistStatus: models.SetlistStatusNotResearched})
	opener := setlistWith("kw", "Keller Williams", 8)
	headliner := setlistWith("wp", "Widespread Panic", 20)
	fetcher := &fakeFetcher{
		setlists: map[string]setlistfm.Setlist{"kw": opener},
		search:   []setlistfm.Setlist{opener, headliner},
	}
	svc := New(fs, fetcher, Options{MaxAttempts: 1})

	results, err := svc.ImportFromSetlistFM(context.Background(), 3, "kw", true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Widespread Panic", results[0].Outcome.Entry.ArtistName)

	saved := fs.concert(3)
	require.Len(t, saved.Artists, 2)
	assert.Equal(t, models.ArtistEntry{ArtistID: saved.Artists[0].ArtistID, ArtistName: "Widespread Panic", Role: models.RoleHeadliner, Position: 1}, saved.Artists[0])
	assert.Equal(t, models.RoleOpener, saved.Artists[1].Role)
	assert.Equal(t, 2, saved.Artists[1].Position)
	assert.True(t, saved.HasSetlist)
}

func TestImportFromSetlistFMFallsBackToSingle(t *testing.T) {
	fs := newFakeStore(&models.Concert{ID: 3})
	fetcher := &fakeFetcher{
		setlists:  map[string]setlistfm.Setlist{"kw": setlistWith("kw", "Keller Williams", 8)},
		searchErr: errors.New("search unavailable"),
	}
	svc := New(fs, fetcher, Options{MaxAttempts: 1})

	results, err := svc.ImportFromSetlistFM(context.Background(), 3, "kw", true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Keller Williams", results[0].Outcome.Entry.ArtistName)
}

func TestImportFromSetlistFMNotFound(t *testing.T) {
	svc := New(newFakeStore(&models.Concert{ID: 3}), &fakeFetcher{}, Options{MaxAttempts: 1})

	_, err := svc.ImportFromSetlistFM(context.Background(), 3, "missing", false)
	require.ErrorIs(t, err, setlistfm.ErrNotFound)
}

func TestImportFromSetlistFMWithoutClient(t *testing.T) {
	svc := New(newFakeStore(&models.Concert{ID: 3}), nil, Options{MaxAttempts: 1})

	_, err := svc.ImportFromSetlistFM(context.Background(), 3, "abc", false)
	require.ErrorIs(t, err, ErrSetlistFMDisabled)
}

func TestProcessSubmission(t *testing.T) {
	fs := newFakeStore(panicConcert())
	svc := New(fs, nil, Options{MaxAttempts: 1})

	data, err := json.Marshal(setlistWith("kw", "Keller Williams", 8))
	require.NoError(t, err)
	sub, err := svc.Submit(context.Background(), 5, SubmissionRequest{
		ConcertID:   json.RawMessage(`"1"`),
		SetlistData: data,
	})
	require.NoError(t, err)
	require.NotNil(t, sub.SubmittedBy)

	res, err := svc.ProcessSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "1-keller-williams", res.SetlistID)

	stored := fs.submissions[sub.ID]
	assert.Equal(t, models.SubmissionApproved, stored.Status)
	assert.True(t, stored.Processed)

	again, err := svc.ProcessSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Nil(t, again, "processed submissions are skipped")
	assert.Equal(t, 1, fs.txCount)
}

func TestProcessSubmissionRecordsFailure(t *testing.T) {
	fs := newFakeStore()
	svc := New(fs, nil, Options{MaxAttempts: 1})

	data, err := json.Marshal(setlistWith("kw", "Keller Williams", 8))
	require.NoError(t, err)
	fs.submissions[1] = &models.Submission{ID: 1, ConcertID: 42, SetlistData: data, Status: models.SubmissionPending}

	_, err = svc.ProcessSubmission(context.Background(), 1)
	require.ErrorIs(t, err, store.ErrConcertNotFound)

	stored := fs.submissions[1]
	assert.False(t, stored.Processed)
	assert.Contains(t, stored.ImportError, "concert not found")
}

func TestSubmitRejectsBadPayload(t *testing.T) {
	svc := New(newFakeStore(), nil, Options{MaxAttempts: 1})

	_, err := svc.Submit(context.Background(), 5, SubmissionRequest{
		ConcertID:   json.RawMessage(`7`),
		SetlistData: json.RawMessage(`{"artist":`),
	})
	require.ErrorIs(t, err, ErrInvalidImport)
}

func TestParseConcertID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `12`, want: 12},
		{raw: `"12"`, want: 12},
		{raw: `" 12 "`, want: 12},
		{raw: `"abc"`, wantErr: true},
		{raw: `0`, wantErr: true},
		{raw: `-3`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: ``, wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseConcertID(json.RawMessage(tc.raw))
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidImport, "raw %q", tc.raw)
			continue
		}
		assert.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}
