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

// Package musicbrainz implements the metadata service client. It searches
// artists and fetches an artist's canonical album list, filtered to primary
// album release groups with no secondary classifications.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cratedig-project/cratedig/pkg/shared/httpclient"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"

	// releaseGroupLimit is the MusicBrainz maximum page size.
	releaseGroupLimit = 100
)

// StatusError is returned for non-200 responses so callers can classify
// retryable failures (429 and upstream 5xx) against fatal ones.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metadata service returned HTTP %d", e.StatusCode)
}

// ErrInvalidMBID is returned before any I/O when a natural key is not a
// well-formed UUID.
var ErrInvalidMBID = fmt.Errorf("malformed MBID")

// Client talks to a MusicBrainz-compatible web service.
type Client struct {
	client  *httpclient.Client
	baseURL string
}

// NewClient creates a Client against the given base URL (empty for the
// public MusicBrainz service).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		client:  httpclient.NewClientWithTimeout(30 * time.Second),
		baseURL: baseURL,
	}
}

// SearchArtists searches artists by name. Results are ranked descending by
// the service's relevance score.
func (c *Client) SearchArtists(ctx context.Context, term string) ([]ArtistResult, error) {
	params := url.Values{}
	params.Set("query", "artist:"+strconv.Quote(term))
	params.Set("fmt", "json")

	var resp artistSearchResponse
	if err := c.getJSON(ctx, "/artist?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]ArtistResult, 0, len(resp.Artists))
	for _, artist := range resp.Artists {
		results = append(results, ArtistResult{
			MBID:           artist.ID,
			Name:           artist.Name,
			SortName:       artist.SortName,
			Disambiguation: artist.Disambiguation,
			Score:          artist.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// FetchReleases fetches the canonical album list for an artist, keeping only
// release groups whose primary type is Album with no secondary types
// (excluding compilations, live albums, soundtracks and the like). Results
// are sorted by first release date ascending with undated releases last.
func (c *Client) FetchReleases(ctx context.Context, artistMBID string) ([]ReleaseResult, error) {
	if _, err := uuid.Parse(artistMBID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMBID, artistMBID)
	}

	params := url.Values{}
	params.Set("artist", artistMBID)
	params.Set("type", "album")
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(releaseGroupLimit))

	var resp releaseGroupResponse
	if err := c.getJSON(ctx, "/release-group?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]ReleaseResult, 0, len(resp.ReleaseGroups))
	for _, group := range resp.ReleaseGroups {
		if group.PrimaryType != "Album" || len(group.SecondaryTypes) > 0 {
			continue
		}
		results = append(results, ReleaseResult{
			MBID:           group.ID,
			Title:          group.Title,
			Disambiguation: group.Disambiguation,
			ReleaseDate:    group.FirstReleaseDate,
			Year:           yearOf(group.FirstReleaseDate),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].ReleaseDate, results[j].ReleaseDate
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	log.Debug().
		Str("artist", artistMBID).
		Int("total", len(resp.ReleaseGroups)).
		Int("albums", len(results)).
		Msg("fetched release groups")

	return results, nil
}

// yearOf parses the year from a MusicBrainz partial date (YYYY, YYYY-MM or
// YYYY-MM-DD).
func yearOf(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.client.Get(ctx, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
