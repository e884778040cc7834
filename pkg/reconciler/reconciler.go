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

// Package reconciler runs the ownership reconciliation for an artist: scan
// the artist's folder, match releases against it, and write verdicts back
// while respecting manual overrides and the ignore flag.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/cratedig-project/cratedig/pkg/config"
	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/cratedig-project/cratedig/pkg/library"
	"github.com/rs/zerolog/log"
)

// ErrPathRejected is returned when a user-supplied path fails confinement to
// the library root. The caller translates it into a user-facing error without
// echoing internal paths.
var ErrPathRejected = errors.New("path rejected")

// Store is the storage port the reconciler needs. catalogdb.CatalogDB
// implements it; tests substitute an in-memory fake.
type Store interface {
	Artist(id int64) (*database.Artist, error)
	SetArtistFolder(id int64, folderPath string) error
	Release(id int64) (*database.Release, error)
	ReleasesByArtist(artistID int64) ([]database.Release, error)
	UpdateReleaseVerdict(id int64, status database.OwnershipStatus, folderPath string, confidence float32) error
	SetReleaseFolder(id int64, folderPath string) error
	ClearReleaseFolder(id int64) error
	MarkReleaseOwned(id int64) error
	ClearReleaseOverride(id int64) error
	SetReleaseIgnored(id int64, ignored bool) error
	ReplaceFolders(parentPath string, folders []database.Folder) error
}

// Reconciler orchestrates scanning, matching and verdict write-back.
type Reconciler struct {
	store   Store
	scanner *library.Scanner
	cfg     *config.Instance
}

func New(cfg *config.Instance, store Store, scanner *library.Scanner) *Reconciler {
	return &Reconciler{cfg: cfg, store: store, scanner: scanner}
}

// Result summarizes one reconciliation run.
type Result struct {
	FolderPath     string
	ScannedFolders int
	Owned          int
	Missing        int
	Ambiguous      int
	Skipped        int
}

// ReconcileArtist reconciles every catalog entry of one artist against the
// on-disk library. An explicitly linked folder takes precedence over
// auto-detection; when neither resolves, all non-overridden entries are
// marked missing. Running it twice with no filesystem changes produces
// identical verdicts.
func (r *Reconciler) ReconcileArtist(ctx context.Context, artistID int64) (*Result, error) {
	artist, err := r.store.Artist(artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up artist %d: %w", artistID, err)
	}

	releases, err := r.store.ReleasesByArtist(artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load releases: %w", err)
	}

	folder := artist.FolderPath
	if folder == "" {
		if detected, ok := r.scanner.DetectArtistFolder(ctx, artist.Name); ok {
			folder = detected
		}
	}

	result := &Result{FolderPath: folder}

	if folder == "" {
		log.Info().Str("artist", artist.Name).Msg("no artist folder found, marking releases missing")
		for i := range releases {
			release := &releases[i]
			if release.ManualOverride {
				result.Skipped++
				continue
			}
			err := r.store.UpdateReleaseVerdict(release.DBID, database.StatusMissing, "", 0)
			if err != nil {
				return nil, fmt.Errorf("failed to write verdict: %w", err)
			}
			result.Missing++
		}
		return result, nil
	}

	albums := r.scanner.ScanChildren(ctx, folder)
	if err := r.store.ReplaceFolders(folder, albums); err != nil {
		return nil, fmt.Errorf("failed to cache scan results: %w", err)
	}
	result.ScannedFolders = len(albums)

	verdicts := library.MatchReleases(releases, albums, r.cfg.MatchThreshold())

	for i := range releases {
		release := &releases[i]
		if release.ManualOverride {
			result.Skipped++
			continue
		}

		verdict := verdicts[release.MBID]
		err := r.store.UpdateReleaseVerdict(
			release.DBID, verdict.Status, verdict.FolderPath, verdict.Confidence)
		if err != nil {
			return nil, fmt.Errorf("failed to write verdict: %w", err)
		}

		switch verdict.Status {
		case database.StatusOwned:
			result.Owned++
		case database.StatusAmbiguous:
			result.Ambiguous++
		case database.StatusMissing:
			result.Missing++
		}
	}

	log.Info().
		Str("artist", artist.Name).
		Int("scanned", result.ScannedFolders).
		Int("owned", result.Owned).
		Int("missing", result.Missing).
		Int("ambiguous", result.Ambiguous).
		Int("skipped", result.Skipped).
		Msg("artist reconciliation complete")

	return result, nil
}

// ScanLibrary runs a full recursive scan of the library root and replaces
// the folder cache wholesale.
func (r *Reconciler) ScanLibrary(ctx context.Context) (int, error) {
	folders := r.scanner.ScanAll(ctx)
	if err := r.store.ReplaceFolders(r.scanner.Root(), folders); err != nil {
		return 0, fmt.Errorf("failed to cache scan results: %w", err)
	}
	return len(folders), nil
}

// DetectArtistFolder auto-detects the on-disk folder for an artist without
// persisting the result.
func (r *Reconciler) DetectArtistFolder(ctx context.Context, artistID int64) (string, error) {
	artist, err := r.store.Artist(artistID)
	if err != nil {
		return "", fmt.Errorf("failed to look up artist %d: %w", artistID, err)
	}

	path, ok := r.scanner.DetectArtistFolder(ctx, artist.Name)
	if !ok {
		return "", database.ErrNotFound
	}
	return path, nil
}
