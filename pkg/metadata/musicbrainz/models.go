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

// ArtistResult is one ranked hit from an artist search.
type ArtistResult struct {
	MBID           string
	Name           string
	SortName       string
	Disambiguation string
	Score          int
}

// ReleaseResult is one canonical release group for an artist, filtered to
// plain albums.
type ReleaseResult struct {
	MBID           string
	Title          string
	Disambiguation string
	ReleaseDate    string
	Year           *int
}

// API wire formats. MusicBrainz uses kebab-case JSON keys.

type artistSearchResponse struct {
	Artists []apiArtist `json:"artists"`
	Count   int         `json:"count"`
}

type apiArtist struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortName       string `json:"sort-name"`
	Disambiguation string `json:"disambiguation"`
	Score          int    `json:"score"`
}

type releaseGroupResponse struct {
	ReleaseGroups []apiReleaseGroup `json:"release-groups"`
	Count         int               `json:"release-group-count"`
}

type apiReleaseGroup struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Disambiguation   string   `json:"disambiguation"`
	FirstReleaseDate string   `json:"first-release-date"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
}
