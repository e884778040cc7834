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

// Package metadata coordinates catalog refreshes against the external
// metadata service: at most one concurrent refresh per artist, global
// request pacing, retry with backoff and duplicate-free ingestion.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cratedig-project/cratedig/pkg/config"
	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/cratedig-project/cratedig/pkg/helpers/syncutil"
	"github.com/cratedig-project/cratedig/pkg/metadata/musicbrainz"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRefreshInFlight is returned when a refresh for the same artist is
	// already running. Callers should treat it as "try later".
	ErrRefreshInFlight = errors.New("refresh already in progress")

	// ErrServiceUnavailable wraps the last underlying failure after all
	// retries are exhausted. User-facing surfaces show only this message;
	// the cause stays in the logs.
	ErrServiceUnavailable = errors.New("metadata service unavailable")
)

// StaleThreshold is how old an artist's last refresh may be before the
// staleness sweep re-checks it.
const StaleThreshold = 7 * 24 * time.Hour

// ArtistStore is the storage port the coordinator needs.
type ArtistStore interface {
	AddArtist(artist *database.Artist) (int64, error)
	Artist(id int64) (*database.Artist, error)
	ArtistByMBID(mbid string) (*database.Artist, error)
	ReleaseMBIDs(artistID int64) (map[string]struct{}, error)
	AddReleases(releases []database.Release) (int, error)
	TouchArtist(id int64, refreshedAt time.Time) error
	OldestRefreshedArtist() (*database.Artist, error)
}

// MetadataService is the external metadata service port.
type MetadataService interface {
	SearchArtists(ctx context.Context, term string) ([]musicbrainz.ArtistResult, error)
	FetchReleases(ctx context.Context, artistMBID string) ([]musicbrainz.ReleaseResult, error)
}

// Coordinator owns the process-wide refresh state: the set of artists being
// refreshed and the timestamp of the last outbound request. Construct one per
// process and share it by injection.
type Coordinator struct {
	lastRequest time.Time
	store       ArtistStore
	service     MetadataService
	cfg         *config.Instance
	clock       clockwork.Clock
	inFlight    map[int64]struct{}
	mu          syncutil.Mutex
}

// NewCoordinator creates a Coordinator. A nil clock selects the real clock;
// tests inject a fake one.
func NewCoordinator(
	cfg *config.Instance,
	store ArtistStore,
	service MetadataService,
	clock clockwork.Clock,
) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Coordinator{
		cfg:      cfg,
		store:    store,
		service:  service,
		clock:    clock,
		inFlight: make(map[int64]struct{}),
	}
}

// SearchArtists queries the metadata service for artists matching a term.
// The call shares the coordinator's request pacing and retry policy.
func (c *Coordinator) SearchArtists(
	ctx context.Context,
	term string,
) ([]musicbrainz.ArtistResult, error) {
	var results []musicbrainz.ArtistResult
	err := c.callWithRetry(ctx, func(ctx context.Context) error {
		var searchErr error
		results, searchErr = c.service.SearchArtists(ctx, term)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// AddArtist adds an artist to the catalog by natural key and runs the
// initial release fetch. Adding a known artist returns
// database.ErrArtistExists.
func (c *Coordinator) AddArtist(
	ctx context.Context,
	mbid string,
	name string,
) (*database.Artist, *RefreshResult, error) {
	if _, err := c.store.ArtistByMBID(mbid); err == nil {
		return nil, nil, database.ErrArtistExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check for existing artist: %w", err)
	}

	id, err := c.store.AddArtist(&database.Artist{MBID: mbid, Name: name})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add artist: %w", err)
	}

	result, err := c.Refresh(ctx, id)
	if err != nil {
		// The artist row stays; a later refresh can fill in releases.
		log.Warn().Err(err).Int64("artist", id).Msg("initial refresh failed")
		result = nil
	}

	artist, err := c.store.Artist(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload artist %d: %w", id, err)
	}
	return artist, result, nil
}

// RefreshResult summarizes one refresh run.
type RefreshResult struct {
	RefreshedAt time.Time
	Message     string
	NewReleases int
}

// Refresh fetches the artist's canonical release list and ingests any
// releases not yet known. The artist's last-refreshed timestamp is bumped
// even when nothing new was found.
func (c *Coordinator) Refresh(ctx context.Context, artistID int64) (*RefreshResult, error) {
	if err := c.acquire(artistID); err != nil {
		return nil, err
	}
	defer c.release(artistID)

	artist, err := c.store.Artist(artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up artist %d: %w", artistID, err)
	}

	var fetched []musicbrainz.ReleaseResult
	err = c.callWithRetry(ctx, func(ctx context.Context) error {
		var fetchErr error
		fetched, fetchErr = c.service.FetchReleases(ctx, artist.MBID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	known, err := c.store.ReleaseMBIDs(artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load known releases: %w", err)
	}

	var unseen []database.Release
	for _, release := range fetched {
		if _, ok := known[release.MBID]; ok {
			continue
		}
		unseen = append(unseen, database.Release{
			ArtistDBID:  artistID,
			MBID:        release.MBID,
			Title:       release.Title,
			ReleaseYear: release.Year,
			ReleaseDate: release.ReleaseDate,
			Status:      database.StatusMissing,
		})
	}

	inserted := 0
	if len(unseen) > 0 {
		inserted, err = c.store.AddReleases(unseen)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest releases: %w", err)
		}
	}

	now := c.clock.Now()
	if err := c.store.TouchArtist(artistID, now); err != nil {
		return nil, fmt.Errorf("failed to update refresh timestamp: %w", err)
	}

	log.Info().
		Int64("artist", artistID).
		Int("fetched", len(fetched)).
		Int("new", inserted).
		Msg("artist refresh complete")

	result := &RefreshResult{NewReleases: inserted, RefreshedAt: now}
	if inserted == 0 {
		result.Message = "no new releases"
	}
	return result, nil
}

// StaleCheckResult reports what the staleness sweep did.
type StaleCheckResult struct {
	Result     *RefreshResult
	ArtistName string
	ArtistID   int64
	Refreshed  bool
}

// CheckStale finds the artist with the oldest last-refreshed timestamp and,
// if that age exceeds StaleThreshold, refreshes exactly that one artist.
func (c *Coordinator) CheckStale(ctx context.Context) (*StaleCheckResult, error) {
	artist, err := c.store.OldestRefreshedArtist()
	if errors.Is(err, database.ErrNotFound) {
		return &StaleCheckResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find oldest artist: %w", err)
	}

	if c.clock.Since(artist.LastRefreshedAt) <= StaleThreshold {
		return &StaleCheckResult{
			ArtistID:   artist.DBID,
			ArtistName: artist.Name,
		}, nil
	}

	result, err := c.Refresh(ctx, artist.DBID)
	if err != nil {
		return nil, err
	}
	return &StaleCheckResult{
		Refreshed:  true,
		ArtistID:   artist.DBID,
		ArtistName: artist.Name,
		Result:     result,
	}, nil
}

// acquire reserves the in-flight slot for an artist. release must run on
// every exit path so a failed refresh cannot leave a stuck marker.
func (c *Coordinator) acquire(artistID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[artistID]; ok {
		return ErrRefreshInFlight
	}
	c.inFlight[artistID] = struct{}{}
	return nil
}

func (c *Coordinator) release(artistID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, artistID)
}
