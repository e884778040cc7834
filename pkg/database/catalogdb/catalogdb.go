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

// Package catalogdb is the sqlite-backed store for artists, releases and the
// folder scan cache.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cratedig-project/cratedig/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("CatalogDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

const dbFile = "catalog.db"

// CatalogDB wraps the catalog sqlite database. The underlying store provides
// the transaction discipline; callers get single-writer safety from sqlite's
// busy handling plus the uniqueness constraints on natural keys.
type CatalogDB struct {
	sql *sql.DB
	ctx context.Context
}

// Open opens (and creates if necessary) the catalog database under dataDir
// and runs pending migrations.
func Open(ctx context.Context, dataDir string) (*CatalogDB, error) {
	dbPath := filepath.Join(dataDir, dbFile)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &CatalogDB{sql: sqlInstance, ctx: ctx}
	if err := db.MigrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *CatalogDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing. The
// schema is allocated on the injected database.
func (db *CatalogDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) error {
	db.sql = sqlDB
	db.ctx = ctx
	return db.MigrateUp()
}

func (db *CatalogDB) AddArtist(artist *database.Artist) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlAddArtist(db.ctx, db.sql, artist)
}

func (db *CatalogDB) Artist(id int64) (*database.Artist, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlArtist(db.ctx, db.sql, id)
}

func (db *CatalogDB) ArtistByMBID(mbid string) (*database.Artist, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlArtistByMBID(db.ctx, db.sql, mbid)
}

func (db *CatalogDB) AllArtists() ([]database.Artist, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlAllArtists(db.ctx, db.sql)
}

func (db *CatalogDB) SetArtistFolder(id int64, folderPath string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetArtistFolder(db.ctx, db.sql, id, folderPath)
}

// TouchArtist bumps the artist's last-refreshed timestamp. Called after every
// refresh, including ones that found nothing new, so staleness tracking
// records that a check occurred.
func (db *CatalogDB) TouchArtist(id int64, refreshedAt time.Time) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTouchArtist(db.ctx, db.sql, id, refreshedAt)
}

// OldestRefreshedArtist returns the single artist with the oldest
// last-refreshed timestamp, or database.ErrNotFound when no artists exist.
func (db *CatalogDB) OldestRefreshedArtist() (*database.Artist, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlOldestRefreshedArtist(db.ctx, db.sql)
}

// AddReleases bulk-inserts releases, silently skipping any whose MBID is
// already known. Returns the number actually inserted.
func (db *CatalogDB) AddReleases(releases []database.Release) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlAddReleases(db.ctx, db.sql, releases)
}

func (db *CatalogDB) Release(id int64) (*database.Release, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlRelease(db.ctx, db.sql, id)
}

func (db *CatalogDB) ReleasesByArtist(artistID int64) ([]database.Release, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlReleasesByArtist(db.ctx, db.sql, artistID)
}

func (db *CatalogDB) ReleaseMBIDs(artistID int64) (map[string]struct{}, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlReleaseMBIDs(db.ctx, db.sql, artistID)
}

// UpdateReleaseVerdict writes an automatic match verdict. An owned verdict
// unconditionally clears the ignored flag: an owned release cannot stay
// hidden, even when the write happens during a later rescan.
func (db *CatalogDB) UpdateReleaseVerdict(
	id int64,
	status database.OwnershipStatus,
	folderPath string,
	confidence float32,
) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if status == database.StatusOwned && folderPath == "" {
		return database.ErrNoMatchedFolder
	}
	return sqlUpdateReleaseVerdict(db.ctx, db.sql, id, status, folderPath, confidence)
}

// SetReleaseFolder records a user-chosen folder: the release becomes owned,
// manually overridden and un-ignored.
func (db *CatalogDB) SetReleaseFolder(id int64, folderPath string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetReleaseFolder(db.ctx, db.sql, id, folderPath)
}

// ClearReleaseFolder removes the folder link: the release becomes missing and
// stays manually overridden.
func (db *CatalogDB) ClearReleaseFolder(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlClearReleaseFolder(db.ctx, db.sql, id)
}

// MarkReleaseOwned promotes a release with a previously matched folder to
// owned. Fails with database.ErrNoMatchedFolder when no folder is recorded.
func (db *CatalogDB) MarkReleaseOwned(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMarkReleaseOwned(db.ctx, db.sql, id)
}

// ClearReleaseOverride reverts the release to automatic-matching eligibility
// without changing its status.
func (db *CatalogDB) ClearReleaseOverride(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlClearReleaseOverride(db.ctx, db.sql, id)
}

// SetReleaseIgnored sets or clears the ignored flag. Ignoring an owned
// release is rejected with database.ErrReleaseOwned; un-ignoring has no
// precondition.
func (db *CatalogDB) SetReleaseIgnored(id int64, ignored bool) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetReleaseIgnored(db.ctx, db.sql, id, ignored)
}

// ReplaceFolders replaces the cached scan results for a subtree wholesale.
func (db *CatalogDB) ReplaceFolders(parentPath string, folders []database.Folder) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlReplaceFolders(db.ctx, db.sql, parentPath, folders)
}

func (db *CatalogDB) FoldersUnder(parentPath string) ([]database.Folder, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFoldersUnder(db.ctx, db.sql, parentPath)
}
