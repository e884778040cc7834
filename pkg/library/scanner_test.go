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
	"testing"

	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()

	dirs := []string{
		"/music/Pink Floyd/[1973] The Dark Side of the Moon",
		"/music/Pink Floyd/[1975] Wish You Were Here",
		"/music/Pink Floyd/Artwork",
		"/music/The Beatles/[1969] Abbey Road",
	}
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll(dir, 0o755))
	}
	require.NoError(t, afero.WriteFile(fs, "/music/notes.txt", []byte("x"), 0o644))

	return fs
}

func TestScanAll(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(newTestLibrary(t), "/music")
	folders := scanner.ScanAll(context.Background())

	byPath := make(map[string]database.Folder, len(folders))
	for _, folder := range folders {
		byPath[folder.Path] = folder
	}

	assert.Len(t, folders, 6)

	artist, ok := byPath["/music/Pink Floyd"]
	require.True(t, ok)
	assert.True(t, artist.IsArtistFolder)
	assert.Nil(t, artist.ParsedYear)
	assert.Equal(t, "/music", artist.ParentPath)

	album, ok := byPath["/music/Pink Floyd/[1973] The Dark Side of the Moon"]
	require.True(t, ok)
	assert.False(t, album.IsArtistFolder)
	require.NotNil(t, album.ParsedYear)
	assert.Equal(t, 1973, *album.ParsedYear)
	assert.Equal(t, "the dark side of the moon", album.ParsedTitle)
}

func TestScanAllCancelledContext(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(newTestLibrary(t), "/music")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, scanner.ScanAll(ctx))
}

func TestScanChildren(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(newTestLibrary(t), "/music")
	folders := scanner.ScanChildren(context.Background(), "/music/Pink Floyd")

	// Only year-prefixed children count as albums; "Artwork" is skipped.
	require.Len(t, folders, 2)
	for _, folder := range folders {
		assert.False(t, folder.IsArtistFolder)
		assert.NotNil(t, folder.ParsedYear)
		assert.Equal(t, "/music/Pink Floyd", folder.ParentPath)
	}
}

func TestScanChildrenMissingFolder(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(newTestLibrary(t), "/music")
	assert.Empty(t, scanner.ScanChildren(context.Background(), "/music/Nope"))
}

func TestDetectArtistFolder(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(newTestLibrary(t), "/music")

	tests := []struct {
		name     string
		artist   string
		expected string
		found    bool
	}{
		{
			name:     "exact_name",
			artist:   "Pink Floyd",
			expected: "/music/Pink Floyd",
			found:    true,
		},
		{
			name:     "case_insensitive",
			artist:   "pink floyd",
			expected: "/music/Pink Floyd",
			found:    true,
		},
		{
			name:     "comma_the_variation",
			artist:   "Beatles, The",
			expected: "/music/The Beatles",
			found:    true,
		},
		{
			name:   "unknown_artist",
			artist: "King Crimson",
			found:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path, found := scanner.DetectArtistFolder(context.Background(), tt.artist)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, path)
		})
	}
}
