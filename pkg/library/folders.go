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
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// yearPrefixRe matches the "[YYYY] " prefix used by album folders.
	yearPrefixRe = regexp.MustCompile(`^\[(\d{4})\]\s*`)

	// groupingRe matches alphabetical grouping folders like "= A =" which
	// hold artist folders but are not artists themselves.
	groupingRe = regexp.MustCompile(`^=\s*[A-Za-z0-9]\s*=$`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases a title, strips punctuation, collapses runs of
// whitespace and trims the result. Release titles and folder titles are both
// normalized with this function so the matcher compares like with like.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation becomes a space so "AC/DC" keeps two tokens.
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// ParseFolderName extracts the leading "[YYYY]" year prefix from a folder
// name and returns the parsed year (nil when absent) plus the normalized
// remaining title.
func ParseFolderName(name string) (*int, string) {
	var year *int
	title := name

	if m := yearPrefixRe.FindStringSubmatch(name); m != nil {
		y, err := strconv.Atoi(m[1])
		if err == nil {
			year = &y
			title = name[len(m[0]):]
		}
	}

	return year, NormalizeTitle(title)
}

// IsArtistFolder reports whether a folder name looks like an artist folder
// rather than an album folder or an alphabetical grouping folder.
func IsArtistFolder(name string) bool {
	if yearPrefixRe.MatchString(name) {
		return false
	}
	if groupingRe.MatchString(name) {
		return false
	}
	if len([]rune(strings.TrimSpace(name))) <= 1 {
		return false
	}
	return true
}

// NameVariations returns the candidate on-disk folder names for an artist.
// The original name is always first. "The X" artists are commonly filed as
// "X, The", and artists whose names contain path separators have them
// substituted on disk.
func NameVariations(artistName string) []string {
	variations := []string{artistName}

	seen := map[string]struct{}{artistName: {}}
	add := func(v string) {
		if _, ok := seen[v]; !ok && v != "" {
			seen[v] = struct{}{}
			variations = append(variations, v)
		}
	}

	if rest, ok := strings.CutPrefix(artistName, "The "); ok {
		add(rest + ", The")
	}
	if rest, ok := strings.CutSuffix(artistName, ", The"); ok {
		add("The " + rest)
	}

	slashless := strings.ReplaceAll(artistName, "/", "-")
	slashless = strings.ReplaceAll(slashless, "\\", "-")
	add(slashless)

	return variations
}
