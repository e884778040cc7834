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

package catalogdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run catalog database migrations: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullYear(year *int) sql.NullInt64 {
	if year == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*year), Valid: true}
}

func scanArtist(row *sql.Row) (*database.Artist, error) {
	var artist database.Artist
	var folder sql.NullString
	var refreshed int64

	err := row.Scan(&artist.DBID, &artist.MBID, &artist.Name, &folder, &refreshed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist row: %w", err)
	}

	artist.FolderPath = folder.String
	if refreshed > 0 {
		artist.LastRefreshedAt = time.Unix(refreshed, 0)
	}
	return &artist, nil
}

const artistColumns = "DBID, MBID, Name, FolderPath, LastRefreshedAt"

func sqlAddArtist(ctx context.Context, db *sql.DB, artist *database.Artist) (int64, error) {
	result, err := db.ExecContext(ctx, `
		insert into Artists (MBID, Name, FolderPath, LastRefreshedAt)
		values (?, ?, ?, ?);
	`, artist.MBID, artist.Name, nullString(artist.FolderPath), artist.LastRefreshedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert artist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get artist insert id: %w", err)
	}
	return id, nil
}

func sqlArtist(ctx context.Context, db *sql.DB, id int64) (*database.Artist, error) {
	return scanArtist(db.QueryRowContext(ctx,
		`select `+artistColumns+` from Artists where DBID = ?;`, id))
}

func sqlArtistByMBID(ctx context.Context, db *sql.DB, mbid string) (*database.Artist, error) {
	return scanArtist(db.QueryRowContext(ctx,
		`select `+artistColumns+` from Artists where MBID = ?;`, mbid))
}

func sqlAllArtists(ctx context.Context, db *sql.DB) ([]database.Artist, error) {
	rows, err := db.QueryContext(ctx,
		`select `+artistColumns+` from Artists order by Name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	var artists []database.Artist
	for rows.Next() {
		var artist database.Artist
		var folder sql.NullString
		var refreshed int64
		if err := rows.Scan(&artist.DBID, &artist.MBID, &artist.Name, &folder, &refreshed); err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		artist.FolderPath = folder.String
		if refreshed > 0 {
			artist.LastRefreshedAt = time.Unix(refreshed, 0)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artist rows: %w", err)
	}
	return artists, nil
}

func sqlSetArtistFolder(ctx context.Context, db *sql.DB, id int64, folderPath string) error {
	result, err := db.ExecContext(ctx,
		`update Artists set FolderPath = ? where DBID = ?;`,
		nullString(folderPath), id)
	if err != nil {
		return fmt.Errorf("failed to update artist folder: %w", err)
	}
	return requireRow(result)
}

func sqlTouchArtist(ctx context.Context, db *sql.DB, id int64, refreshedAt time.Time) error {
	result, err := db.ExecContext(ctx,
		`update Artists set LastRefreshedAt = ? where DBID = ?;`,
		refreshedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to touch artist: %w", err)
	}
	return requireRow(result)
}

func sqlOldestRefreshedArtist(ctx context.Context, db *sql.DB) (*database.Artist, error) {
	return scanArtist(db.QueryRowContext(ctx,
		`select `+artistColumns+` from Artists order by LastRefreshedAt asc limit 1;`))
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

const releaseColumns = "DBID, ArtistDBID, MBID, Title, ReleaseYear, ReleaseDate, " +
	"Status, FolderPath, Confidence, ManualOverride, Ignored, ModifiedAt"

func scanReleaseRow(scan func(dest ...any) error) (*database.Release, error) {
	var release database.Release
	var year sql.NullInt64
	var date, folder sql.NullString
	var confidence sql.NullFloat64
	var modified int64
	var status string

	err := scan(
		&release.DBID, &release.ArtistDBID, &release.MBID, &release.Title,
		&year, &date, &status, &folder, &confidence,
		&release.ManualOverride, &release.Ignored, &modified,
	)
	if err != nil {
		return nil, err
	}

	release.Status = database.OwnershipStatus(status)
	release.ReleaseDate = date.String
	release.FolderPath = folder.String
	release.Confidence = float32(confidence.Float64)
	if year.Valid {
		y := int(year.Int64)
		release.ReleaseYear = &y
	}
	if modified > 0 {
		release.ModifiedAt = time.Unix(modified, 0)
	}
	return &release, nil
}

func sqlRelease(ctx context.Context, db *sql.DB, id int64) (*database.Release, error) {
	row := db.QueryRowContext(ctx,
		`select `+releaseColumns+` from Releases where DBID = ?;`, id)
	release, err := scanReleaseRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan release row: %w", err)
	}
	return release, nil
}

func sqlReleasesByArtist(ctx context.Context, db *sql.DB, artistID int64) ([]database.Release, error) {
	rows, err := db.QueryContext(ctx,
		`select `+releaseColumns+` from Releases where ArtistDBID = ? order by ReleaseDate, DBID;`,
		artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	var releases []database.Release
	for rows.Next() {
		release, err := scanReleaseRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		releases = append(releases, *release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate release rows: %w", err)
	}
	return releases, nil
}

func sqlReleaseMBIDs(ctx context.Context, db *sql.DB, artistID int64) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx,
		`select MBID from Releases where ArtistDBID = ?;`, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query release MBIDs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	mbids := make(map[string]struct{})
	for rows.Next() {
		var mbid string
		if err := rows.Scan(&mbid); err != nil {
			return nil, fmt.Errorf("failed to scan MBID row: %w", err)
		}
		mbids[mbid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate MBID rows: %w", err)
	}
	return mbids, nil
}

func sqlAddReleases(ctx context.Context, db *sql.DB, releases []database.Release) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			log.Warn().Err(rollbackErr).Msg("failed to rollback transaction")
		}
	}()

	// The MBID uniqueness constraint is the safety net; the coordinator has
	// already diffed against known releases before calling this.
	stmt, err := tx.PrepareContext(ctx, `
		insert into Releases (
			ArtistDBID, MBID, Title, ReleaseYear, ReleaseDate,
			Status, ManualOverride, Ignored, ModifiedAt
		) values (?, ?, ?, ?, ?, ?, 0, 0, ?)
		on conflict (MBID) do nothing;
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare release insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	now := time.Now().Unix()
	inserted := 0
	for i := range releases {
		release := &releases[i]
		status := release.Status
		if status == "" {
			status = database.StatusMissing
		}
		result, err := stmt.ExecContext(ctx,
			release.ArtistDBID, release.MBID, release.Title,
			nullYear(release.ReleaseYear), nullString(release.ReleaseDate),
			string(status), now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert release: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func sqlUpdateReleaseVerdict(
	ctx context.Context,
	db *sql.DB,
	id int64,
	status database.OwnershipStatus,
	folderPath string,
	confidence float32,
) error {
	// Owned clears Ignored in the same statement so the invariant holds for
	// every write path, including rescans.
	result, err := db.ExecContext(ctx, `
		update Releases set
			Status = ?,
			FolderPath = ?,
			Confidence = ?,
			Ignored = case when ? = 'owned' then 0 else Ignored end,
			ModifiedAt = ?
		where DBID = ?;
	`, string(status), nullString(folderPath), confidence, string(status),
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update release verdict: %w", err)
	}
	return requireRow(result)
}

func sqlSetReleaseFolder(ctx context.Context, db *sql.DB, id int64, folderPath string) error {
	result, err := db.ExecContext(ctx, `
		update Releases set
			Status = 'owned',
			FolderPath = ?,
			ManualOverride = 1,
			Ignored = 0,
			ModifiedAt = ?
		where DBID = ?;
	`, folderPath, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set release folder: %w", err)
	}
	return requireRow(result)
}

func sqlClearReleaseFolder(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `
		update Releases set
			Status = 'missing',
			FolderPath = null,
			Confidence = null,
			ManualOverride = 1,
			ModifiedAt = ?
		where DBID = ?;
	`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to clear release folder: %w", err)
	}
	return requireRow(result)
}

func sqlMarkReleaseOwned(ctx context.Context, db *sql.DB, id int64) error {
	// Guarding in the where clause keeps the owned-implies-folder invariant
	// atomic with the write.
	result, err := db.ExecContext(ctx, `
		update Releases set
			Status = 'owned',
			ManualOverride = 1,
			Ignored = 0,
			ModifiedAt = ?
		where DBID = ? and FolderPath is not null and FolderPath != '';
	`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark release owned: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, lookupErr := sqlRelease(ctx, db, id); lookupErr != nil {
			return lookupErr
		}
		return database.ErrNoMatchedFolder
	}
	return nil
}

func sqlClearReleaseOverride(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `
		update Releases set ManualOverride = 0, ModifiedAt = ? where DBID = ?;
	`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to clear release override: %w", err)
	}
	return requireRow(result)
}

func sqlSetReleaseIgnored(ctx context.Context, db *sql.DB, id int64, ignored bool) error {
	if ignored {
		release, err := sqlRelease(ctx, db, id)
		if err != nil {
			return err
		}
		if release.Status == database.StatusOwned {
			return database.ErrReleaseOwned
		}
	}

	result, err := db.ExecContext(ctx, `
		update Releases set Ignored = ?, ModifiedAt = ? where DBID = ?;
	`, ignored, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set release ignored flag: %w", err)
	}
	return requireRow(result)
}

// escapeLike escapes like wildcards in an operand so folder names containing
// % or _ match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func sqlReplaceFolders(
	ctx context.Context,
	db *sql.DB,
	parentPath string,
	folders []database.Folder,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			log.Warn().Err(rollbackErr).Msg("failed to rollback transaction")
		}
	}()

	_, err = tx.ExecContext(ctx,
		`delete from Folders where Path = ? or Path like ? || '/%' escape '\';`,
		parentPath, escapeLike(parentPath))
	if err != nil {
		return fmt.Errorf("failed to clear folder cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		insert into Folders (
			Path, Name, ParentPath, IsArtistFolder, ParsedYear, ParsedTitle, ScannedAt
		) values (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare folder insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	for i := range folders {
		folder := &folders[i]
		_, err := stmt.ExecContext(ctx,
			folder.Path, folder.Name, folder.ParentPath, folder.IsArtistFolder,
			nullYear(folder.ParsedYear), nullString(folder.ParsedTitle),
			folder.ScannedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert folder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func sqlFoldersUnder(ctx context.Context, db *sql.DB, parentPath string) ([]database.Folder, error) {
	rows, err := db.QueryContext(ctx, `
		select Path, Name, ParentPath, IsArtistFolder, ParsedYear, ParsedTitle, ScannedAt
		from Folders where ParentPath = ? order by Path;
	`, parentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	var folders []database.Folder
	for rows.Next() {
		var folder database.Folder
		var year sql.NullInt64
		var title sql.NullString
		var scanned int64
		err := rows.Scan(&folder.Path, &folder.Name, &folder.ParentPath,
			&folder.IsArtistFolder, &year, &title, &scanned)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			folder.ParsedYear = &y
		}
		folder.ParsedTitle = title.String
		if scanned > 0 {
			folder.ScannedAt = time.Unix(scanned, 0)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folder rows: %w", err)
	}
	return folders, nil
}
