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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "lowercases_and_trims",
			title:    "  The Dark Side of the Moon  ",
			expected: "the dark side of the moon",
		},
		{
			name:     "punctuation_becomes_space",
			title:    "AC/DC",
			expected: "ac dc",
		},
		{
			name:     "collapses_whitespace",
			title:    "Wish   You\tWere Here",
			expected: "wish you were here",
		},
		{
			name:     "strips_trailing_punctuation",
			title:    "What's the Story, Morning Glory?",
			expected: "what s the story morning glory",
		},
		{
			name:     "keeps_numbers",
			title:    "OK Computer OKNOTOK 1997 2017",
			expected: "ok computer oknotok 1997 2017",
		},
		{
			name:     "empty_string",
			title:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeTitle(tt.title))
		})
	}
}

func TestParseFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		folder        string
		expectedYear  *int
		expectedTitle string
	}{
		{
			name:          "year_prefix_with_title",
			folder:        "[1973] The Dark Side of the Moon",
			expectedYear:  intPtr(1973),
			expectedTitle: "the dark side of the moon",
		},
		{
			name:          "no_year_prefix",
			folder:        "Pink Floyd",
			expectedYear:  nil,
			expectedTitle: "pink floyd",
		},
		{
			name:          "year_prefix_without_space",
			folder:        "[1994]Definitely Maybe",
			expectedYear:  intPtr(1994),
			expectedTitle: "definitely maybe",
		},
		{
			name:          "bracket_without_four_digits_is_title",
			folder:        "[73] Moontan",
			expectedYear:  nil,
			expectedTitle: "73 moontan",
		},
		{
			name:          "year_in_middle_is_not_a_prefix",
			folder:        "Live [1988] at the BBC",
			expectedYear:  nil,
			expectedTitle: "live 1988 at the bbc",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			year, title := ParseFolderName(tt.folder)
			if tt.expectedYear == nil {
				assert.Nil(t, year)
			} else {
				require.NotNil(t, year)
				assert.Equal(t, *tt.expectedYear, *year)
			}
			assert.Equal(t, tt.expectedTitle, title)
		})
	}
}

func TestIsArtistFolder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		folder   string
		expected bool
	}{
		{name: "plain_artist_name", folder: "Pink Floyd", expected: true},
		{name: "album_folder_with_year", folder: "[1973] The Dark Side of the Moon", expected: false},
		{name: "alphabetical_grouping", folder: "= A =", expected: false},
		{name: "grouping_without_spaces", folder: "=B=", expected: false},
		{name: "single_character", folder: "a", expected: false},
		{name: "whitespace_only", folder: "   ", expected: false},
		{name: "two_characters", folder: "U2", expected: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsArtistFolder(tt.folder))
		})
	}
}

func TestNameVariations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		artist   string
		expected []string
	}{
		{
			name:     "the_prefix_gets_comma_form",
			artist:   "The Beatles",
			expected: []string{"The Beatles", "Beatles, The"},
		},
		{
			name:     "comma_form_gets_the_prefix",
			artist:   "Beatles, The",
			expected: []string{"Beatles, The", "The Beatles"},
		},
		{
			name:     "slash_substituted_with_dash",
			artist:   "AC/DC",
			expected: []string{"AC/DC", "AC-DC"},
		},
		{
			name:     "plain_name_has_single_variation",
			artist:   "Radiohead",
			expected: []string{"Radiohead"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NameVariations(tt.artist))
		})
	}
}

func intPtr(v int) *int {
	return &v
}
