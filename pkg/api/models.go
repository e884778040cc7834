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

package api

// SetFolderRequest links a release or artist to a library folder. The path
// is relative to the library root.
type SetFolderRequest struct {
	Path string `json:"path" validate:"required"`
}

// SetIgnoredRequest sets or clears the ignored flag on a release.
type SetIgnoredRequest struct {
	Ignored *bool `json:"ignored" validate:"required"`
}

// AddArtistRequest adds an artist to the catalog by MusicBrainz ID.
type AddArtistRequest struct {
	MBID string `json:"mbid" validate:"required,uuid"`
	Name string `json:"name" validate:"required"`
}

// ArtistResponse is one catalog artist.
type ArtistResponse struct {
	MBID          string `json:"mbid"`
	Name          string `json:"name"`
	FolderPath    string `json:"folder_path,omitempty"`
	LastRefreshed string `json:"last_refreshed,omitempty"`
	ID            int64  `json:"id"`
}

// ArtistDetailResponse is one artist with its catalog releases.
type ArtistDetailResponse struct {
	Artist   ArtistResponse    `json:"artist"`
	Releases []ReleaseResponse `json:"releases"`
}

// ReleaseResponse is one catalog release with its current verdict.
type ReleaseResponse struct {
	MBID           string  `json:"mbid"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	FolderPath     string  `json:"folder_path,omitempty"`
	ReleaseDate    string  `json:"release_date,omitempty"`
	ReleaseYear    *int    `json:"release_year,omitempty"`
	Confidence     float32 `json:"confidence"`
	ID             int64   `json:"id"`
	ManualOverride bool    `json:"manual_override"`
	Ignored        bool    `json:"ignored"`
}

// SearchArtistResult is one ranked metadata service hit.
type SearchArtistResult struct {
	MBID           string `json:"mbid"`
	Name           string `json:"name"`
	SortName       string `json:"sort_name,omitempty"`
	Disambiguation string `json:"disambiguation,omitempty"`
	Score          int    `json:"score"`
}

// SearchArtistsResponse is the artist search result list.
type SearchArtistsResponse struct {
	Results []SearchArtistResult `json:"results"`
}

// AddArtistResponse reports the added artist and its initial refresh, which
// is null when the initial fetch failed.
type AddArtistResponse struct {
	Refresh *RefreshResponse `json:"refresh,omitempty"`
	Artist  ArtistResponse   `json:"artist"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ScanResponse reports a full library scan.
type ScanResponse struct {
	Folders int `json:"folders"`
}

// DetectFolderResponse reports an auto-detected artist folder.
type DetectFolderResponse struct {
	Path string `json:"path"`
}

// RefreshResponse reports a metadata refresh.
type RefreshResponse struct {
	RefreshedAt string `json:"refreshed_at"`
	Message     string `json:"message,omitempty"`
	NewReleases int    `json:"new_releases"`
}

// StaleCheckResponse reports what the staleness sweep did.
type StaleCheckResponse struct {
	Refresh    *RefreshResponse `json:"refresh,omitempty"`
	ArtistName string           `json:"artist_name,omitempty"`
	ArtistID   int64            `json:"artist_id,omitempty"`
	Refreshed  bool             `json:"refreshed"`
}

// ReconcileResponse reports a reconciliation run.
type ReconcileResponse struct {
	FolderPath     string `json:"folder_path,omitempty"`
	ScannedFolders int    `json:"scanned_folders"`
	Owned          int    `json:"owned"`
	Missing        int    `json:"missing"`
	Ambiguous      int    `json:"ambiguous"`
	Skipped        int    `json:"skipped"`
}
