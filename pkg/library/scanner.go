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

package library

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Scanner walks the on-disk library and produces folder descriptors. The
// filesystem is an afero.Fs so tests can run against an in-memory tree.
//
// Scans are tolerant: a subdirectory that cannot be read is logged and
// skipped, and the scan returns partial results rather than failing.
type Scanner struct {
	fs   afero.Fs
	root string
}

// NewScanner creates a Scanner rooted at the library root. The root must be
// an absolute path (enforced by config validation).
func NewScanner(fs afero.Fs, root string) *Scanner {
	return &Scanner{fs: fs, root: filepath.Clean(root)}
}

// Root returns the library root the scanner is confined to.
func (s *Scanner) Root() string {
	return s.root
}

// ScanAll recursively walks the library root depth-first and returns a
// descriptor for every directory found, tagged with the artist-folder
// classification and parsed year/title.
func (s *Scanner) ScanAll(ctx context.Context) []database.Folder {
	var folders []database.Folder
	s.walk(ctx, s.root, &folders)
	log.Debug().Int("folders", len(folders)).Str("root", s.root).Msg("library scan complete")
	return folders
}

func (s *Scanner) walk(ctx context.Context, dir string, out *[]database.Folder) {
	if ctx.Err() != nil {
		return
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("skipping unreadable directory")
		return
	}

	now := time.Now()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)
		year, title := ParseFolderName(name)

		*out = append(*out, database.Folder{
			Path:           path,
			Name:           name,
			ParentPath:     dir,
			IsArtistFolder: IsArtistFolder(name),
			ParsedYear:     year,
			ParsedTitle:    title,
			ScannedAt:      now,
		})

		s.walk(ctx, path, out)
	}
}

// ScanChildren lists the immediate children of one artist folder and keeps
// only entries that parse a year, i.e. album folders. The artist-folder tag
// is always false for these.
func (s *Scanner) ScanChildren(ctx context.Context, folderPath string) []database.Folder {
	if ctx.Err() != nil {
		return nil
	}

	entries, err := afero.ReadDir(s.fs, folderPath)
	if err != nil {
		log.Warn().Err(err).Str("dir", folderPath).Msg("cannot read artist folder")
		return nil
	}

	now := time.Now()
	var folders []database.Folder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		year, title := ParseFolderName(name)
		if year == nil {
			continue
		}

		folders = append(folders, database.Folder{
			Path:           filepath.Join(folderPath, name),
			Name:           name,
			ParentPath:     folderPath,
			IsArtistFolder: false,
			ParsedYear:     year,
			ParsedTitle:    title,
			ScannedAt:      now,
		})
	}

	return folders
}

// DetectArtistFolder runs a full scan and returns the first folder whose
// name matches any variation of the artist name, case-insensitively. The
// second return is false when no folder matches.
func (s *Scanner) DetectArtistFolder(ctx context.Context, artistName string) (string, bool) {
	variations := NameVariations(artistName)

	for _, folder := range s.ScanAll(ctx) {
		for _, variation := range variations {
			if strings.EqualFold(folder.Name, variation) {
				log.Debug().
					Str("artist", artistName).
					Str("folder", folder.Path).
					Msg("detected artist folder")
				return folder.Path, true
			}
		}
	}

	return "", false
}
