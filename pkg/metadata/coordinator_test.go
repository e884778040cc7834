// Cratedig
// Copyright (c) 2026 The Cratedig Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cratedig.
//
// Cratedig is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cratedig is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cratedig.  If not, see <http://www.gnu.org/licenses/>.

package metadata

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cratedig-project/cratedig/pkg/config"
	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/cratedig-project/cratedig/pkg/metadata/musicbrainz"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Instance {
	t.Helper()
	vals := config.BaseDefaults
	vals.Library.RootDir = "/music"
	vals.Metadata.RateLimitMS = 500
	cfg, err := config.NewValues(vals)
	require.NoError(t, err)
	return cfg
}

type fakeStore struct {
	artists  map[int64]*database.Artist
	known    map[int64]map[string]struct{}
	touched  map[int64]time.Time
	ingested []database.Release
	oldest   *database.Artist
	nextID   int64
	mu       sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		artists: make(map[int64]*database.Artist),
		known:   make(map[int64]map[string]struct{}),
		touched: make(map[int64]time.Time),
	}
}

func (s *fakeStore) AddArtist(artist *database.Artist) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	copied := *artist
	copied.DBID = s.nextID
	s.artists[copied.DBID] = &copied
	return copied.DBID, nil
}

func (s *fakeStore) Artist(id int64) (*database.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artist, ok := s.artists[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *artist
	return &copied, nil
}

func (s *fakeStore) ArtistByMBID(mbid string) (*database.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, artist := range s.artists {
		if artist.MBID == mbid {
			copied := *artist
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) ReleaseMBIDs(artistID int64) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mbids := make(map[string]struct{}, len(s.known[artistID]))
	for mbid := range s.known[artistID] {
		mbids[mbid] = struct{}{}
	}
	return mbids, nil
}

func (s *fakeStore) AddReleases(releases []database.Release) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for i := range releases {
		release := releases[i]
		if s.known[release.ArtistDBID] == nil {
			s.known[release.ArtistDBID] = make(map[string]struct{})
		}
		if _, ok := s.known[release.ArtistDBID][release.MBID]; ok {
			continue
		}
		s.known[release.ArtistDBID][release.MBID] = struct{}{}
		s.ingested = append(s.ingested, release)
		inserted++
	}
	return inserted, nil
}

func (s *fakeStore) TouchArtist(id int64, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[id] = refreshedAt
	return nil
}

func (s *fakeStore) OldestRefreshedArtist() (*database.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oldest == nil {
		return nil, database.ErrNotFound
	}
	copied := *s.oldest
	return &copied, nil
}

type fakeFetcher struct {
	fn     func(ctx context.Context, artistMBID string) ([]musicbrainz.ReleaseResult, error)
	search func(ctx context.Context, term string) ([]musicbrainz.ArtistResult, error)
}

func (f *fakeFetcher) FetchReleases(
	ctx context.Context,
	artistMBID string,
) ([]musicbrainz.ReleaseResult, error) {
	return f.fn(ctx, artistMBID)
}

func (f *fakeFetcher) SearchArtists(
	ctx context.Context,
	term string,
) ([]musicbrainz.ArtistResult, error) {
	return f.search(ctx, term)
}

func intPtr(v int) *int {
	return &v
}

func TestRefreshIngestsUnseenReleases(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.artists[42] = &database.Artist{DBID: 42, MBID: "artist-mbid", Name: "Pink Floyd"}
	store.known[42] = map[string]struct{}{"rel-known": {}}

	fetcher := &fakeFetcher{fn: func(_ context.Context, mbid string) ([]musicbrainz.ReleaseResult, error) {
		assert.Equal(t, "artist-mbid", mbid)
		return []musicbrainz.ReleaseResult{
			{MBID: "rel-known", Title: "Already Here", Year: intPtr(1971)},
			{MBID: "rel-new", Title: "Brand New", ReleaseDate: "1973-03-01", Year: intPtr(1973)},
		}, nil
	}}

	clock := clockwork.NewFakeClock()
	c := NewCoordinator(testConfig(t), store, fetcher, clock)

	result, err := c.Refresh(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewReleases)
	assert.Empty(t, result.Message)
	assert.Equal(t, clock.Now(), result.RefreshedAt)

	require.Len(t, store.ingested, 1)
	ingested := store.ingested[0]
	assert.Equal(t, "rel-new", ingested.MBID)
	assert.Equal(t, int64(42), ingested.ArtistDBID)
	assert.Equal(t, database.StatusMissing, ingested.Status)
	require.NotNil(t, ingested.ReleaseYear)
	assert.Equal(t, 1973, *ingested.ReleaseYear)

	assert.Equal(t, clock.Now(), store.touched[42])
}

func TestRefreshTouchesArtistWithNoNewReleases(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.artists[42] = &database.Artist{DBID: 42, MBID: "artist-mbid", Name: "Pink Floyd"}
	store.known[42] = map[string]struct{}{"rel-known": {}}

	fetcher := &fakeFetcher{fn: func(_ context.Context, _ string) ([]musicbrainz.ReleaseResult, error) {
		return []musicbrainz.ReleaseResult{{MBID: "rel-known", Title: "Already Here"}}, nil
	}}

	c := NewCoordinator(testConfig(t), store, fetcher, clockwork.NewFakeClock())

	result, err := c.Refresh(context.Background(), 42)
	require.NoError(t, err)

	assert.Zero(t, result.NewReleases)
	assert.Equal(t, "no new releases", result.Message)
	assert.Empty(t, store.ingested)
	assert.Contains(t, store.touched, int64(42))
}

func TestRefreshUnknownArtist(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(testConfig(t), newFakeStore(), &fakeFetcher{}, clockwork.NewFakeClock())

	_, err := c.Refresh(context.Background(), 999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// The in-flight marker must not leak after a failed refresh.
	c.mu.Lock()
	assert.Empty(t, c.inFlight)
	c.mu.Unlock()
}

func TestRefreshConcurrentSameArtistConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.artists[42] = &database.Artist{DBID: 42, MBID: "artist-mbid", Name: "Pink Floyd"}

	started := make(chan struct{})
	unblock := make(chan struct{})
	fetcher := &fakeFetcher{fn: func(_ context.Context, _ string) ([]musicbrainz.ReleaseResult, error) {
		close(started)
		<-unblock
		return nil, nil
	}}

	c := NewCoordinator(testConfig(t), store, fetcher, clockwork.NewFakeClock())

	done := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background(), 42)
		done <- err
	}()

	<-started

	// Second refresh for the same artist while the first is in flight.
	_, err := c.Refresh(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRefreshInFlight)

	close(unblock)
	require.NoError(t, <-done)

	// Once the first completes the slot is free again.
	c.mu.Lock()
	assert.Empty(t, c.inFlight)
	c.mu.Unlock()
}

func TestCheckStaleNoArtists(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(testConfig(t), newFakeStore(), &fakeFetcher{}, clockwork.NewFakeClock())

	result, err := c.CheckStale(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Refreshed)
	assert.Zero(t, result.ArtistID)
}

func TestCheckStaleFreshArtistSkipped(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := newFakeStore()
	store.oldest = &database.Artist{
		DBID: 42, MBID: "artist-mbid", Name: "Pink Floyd",
		LastRefreshedAt: clock.Now().Add(-time.Hour),
	}

	c := NewCoordinator(testConfig(t), store, &fakeFetcher{}, clock)

	result, err := c.CheckStale(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Refreshed)
	assert.Equal(t, int64(42), result.ArtistID)
	assert.Equal(t, "Pink Floyd", result.ArtistName)
	assert.Nil(t, result.Result)
}

func TestSearchArtists(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{search: func(_ context.Context, term string) ([]musicbrainz.ArtistResult, error) {
		assert.Equal(t, "pink floyd", term)
		return []musicbrainz.ArtistResult{{MBID: "artist-mbid", Name: "Pink Floyd", Score: 100}}, nil
	}}

	c := NewCoordinator(testConfig(t), newFakeStore(), fetcher, clockwork.NewFakeClock())

	results, err := c.SearchArtists(context.Background(), "pink floyd")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Pink Floyd", results[0].Name)
}

func TestAddArtistRunsInitialRefresh(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	fetcher := &fakeFetcher{fn: func(_ context.Context, mbid string) ([]musicbrainz.ReleaseResult, error) {
		assert.Equal(t, "artist-mbid", mbid)
		return []musicbrainz.ReleaseResult{{MBID: "rel-1", Title: "First Album"}}, nil
	}}

	c := NewCoordinator(testConfig(t), store, fetcher, clockwork.NewFakeClock())

	artist, result, err := c.AddArtist(context.Background(), "artist-mbid", "Pink Floyd")
	require.NoError(t, err)
	require.NotNil(t, artist)
	assert.Equal(t, "Pink Floyd", artist.Name)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.NewReleases)
	assert.Len(t, store.ingested, 1)
}

func TestAddArtistDuplicateMBID(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.artists[1] = &database.Artist{DBID: 1, MBID: "artist-mbid", Name: "Pink Floyd"}

	c := NewCoordinator(testConfig(t), store, &fakeFetcher{}, clockwork.NewFakeClock())

	_, _, err := c.AddArtist(context.Background(), "artist-mbid", "Pink Floyd")
	assert.ErrorIs(t, err, database.ErrArtistExists)
}

func TestAddArtistKeepsRowWhenRefreshFails(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	fetcher := &fakeFetcher{fn: func(_ context.Context, _ string) ([]musicbrainz.ReleaseResult, error) {
		return nil, &musicbrainz.StatusError{StatusCode: http.StatusInternalServerError}
	}}

	c := NewCoordinator(testConfig(t), store, fetcher, clockwork.NewFakeClock())

	artist, result, err := c.AddArtist(context.Background(), "artist-mbid", "Pink Floyd")
	require.NoError(t, err)
	require.NotNil(t, artist)
	assert.Nil(t, result)

	// The catalog entry survives so a later refresh can populate it.
	_, err = store.ArtistByMBID("artist-mbid")
	assert.NoError(t, err)
}

func TestCheckStaleRefreshesOldArtist(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := newFakeStore()
	stale := &database.Artist{
		DBID: 42, MBID: "artist-mbid", Name: "Pink Floyd",
		LastRefreshedAt: clock.Now().Add(-StaleThreshold - time.Minute),
	}
	store.oldest = stale
	store.artists[42] = stale

	fetcher := &fakeFetcher{fn: func(_ context.Context, _ string) ([]musicbrainz.ReleaseResult, error) {
		return []musicbrainz.ReleaseResult{{MBID: "rel-new", Title: "Brand New"}}, nil
	}}

	c := NewCoordinator(testConfig(t), store, fetcher, clock)

	result, err := c.CheckStale(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Refreshed)
	assert.Equal(t, int64(42), result.ArtistID)
	require.NotNil(t, result.Result)
	assert.Equal(t, 1, result.Result.NewReleases)
	assert.Contains(t, store.touched, int64(42))
}
