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

package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtistMBID = "83d91898-7763-47d7-b03b-b92132375c47"

func TestFetchReleasesFiltersAndSorts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/release-group", r.URL.Path)
		assert.Equal(t, testArtistMBID, r.URL.Query().Get("artist"))
		assert.Equal(t, "album", r.URL.Query().Get("type"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Cratedig/")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"release-group-count": 5,
			"release-groups": [
				{
					"id": "rg-wall", "title": "The Wall",
					"first-release-date": "1979-11-30",
					"primary-type": "Album", "secondary-types": []
				},
				{
					"id": "rg-live", "title": "Pulse",
					"first-release-date": "1995-05-29",
					"primary-type": "Album", "secondary-types": ["Live"]
				},
				{
					"id": "rg-dsotm", "title": "The Dark Side of the Moon",
					"first-release-date": "1973-03-01",
					"primary-type": "Album", "secondary-types": []
				},
				{
					"id": "rg-single", "title": "See Emily Play",
					"first-release-date": "1967-06-16",
					"primary-type": "Single", "secondary-types": []
				},
				{
					"id": "rg-undated", "title": "Unknown Sessions",
					"first-release-date": "",
					"primary-type": "Album", "secondary-types": []
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	releases, err := client.FetchReleases(context.Background(), testArtistMBID)
	require.NoError(t, err)

	// Live album and single are filtered; dated albums sort ascending with
	// the undated one last.
	require.Len(t, releases, 3)
	assert.Equal(t, "rg-dsotm", releases[0].MBID)
	assert.Equal(t, "rg-wall", releases[1].MBID)
	assert.Equal(t, "rg-undated", releases[2].MBID)

	require.NotNil(t, releases[0].Year)
	assert.Equal(t, 1973, *releases[0].Year)
	assert.Nil(t, releases[2].Year)
}

func TestFetchReleasesRejectsMalformedMBID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request should be made for a malformed MBID")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchReleases(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidMBID)
}

func TestFetchReleasesStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchReleases(context.Background(), testArtistMBID)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestSearchArtistsRankedByScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/artist", r.URL.Path)
		assert.Equal(t, `artist:"Pink Floyd"`, r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 2,
			"artists": [
				{"id": "a-trib", "name": "Pink Fraud", "sort-name": "Pink Fraud", "score": 60},
				{"id": "a-real", "name": "Pink Floyd", "sort-name": "Pink Floyd",
				 "disambiguation": "UK psychedelic rock band", "score": 100}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	results, err := client.SearchArtists(context.Background(), "Pink Floyd")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a-real", results[0].MBID)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, "UK psychedelic rock band", results[0].Disambiguation)
	assert.Equal(t, "a-trib", results[1].MBID)
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	t.Parallel()

	client := NewClient("")
	assert.Equal(t, "https://musicbrainz.org/ws/2", client.baseURL)
}
