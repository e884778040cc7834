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

// Package database defines the shared storage models and errors used by the
// catalog store, the reconciler and the metadata coordinator.
package database

import (
	"errors"
	"time"
)

// OwnershipStatus describes whether a release is confirmed present in the
// on-disk library.
type OwnershipStatus string

const (
	StatusOwned     OwnershipStatus = "owned"
	StatusMissing   OwnershipStatus = "missing"
	StatusAmbiguous OwnershipStatus = "ambiguous"
)

var (
	// ErrNotFound is returned when a row does not exist for the given key.
	ErrNotFound = errors.New("record not found")
	// ErrReleaseOwned is returned when an operation is not valid for a
	// release that is currently marked owned.
	ErrReleaseOwned = errors.New("release is marked owned")
	// ErrNoMatchedFolder is returned when a release has no folder path to
	// promote to owned.
	ErrNoMatchedFolder = errors.New("release has no matched folder")
	// ErrArtistExists is returned when adding an artist whose natural key is
	// already in the catalog.
	ErrArtistExists = errors.New("artist already in catalog")
)

// Artist is a catalog artist tracked by the library.
type Artist struct {
	LastRefreshedAt time.Time
	MBID            string
	Name            string
	FolderPath      string
	DBID            int64
}

// Release is a canonical release owned by an artist.
//
// Invariants enforced by the store's write paths: an owned release always has
// a folder path and is never ignored, and manually overridden releases are
// not touched by automatic reconciliation.
type Release struct {
	ModifiedAt     time.Time
	MBID           string
	Title          string
	Status         OwnershipStatus
	FolderPath     string
	ReleaseDate    string
	ReleaseYear    *int
	Confidence     float32
	DBID           int64
	ArtistDBID     int64
	ManualOverride bool
	Ignored        bool
}

// Folder is a cached scan result for a single library directory. Rows are
// replaced wholesale on each scan of a subtree, never individually mutated.
type Folder struct {
	ScannedAt      time.Time
	Path           string
	Name           string
	ParentPath     string
	ParsedTitle    string
	ParsedYear     *int
	IsArtistFolder bool
}
