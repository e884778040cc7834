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

// Package library implements the reconciliation engine's filesystem side:
// confined path resolution, folder name classification, library scanning and
// fuzzy release matching.
package library

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// reservedNames are Windows device names that bypass normal path handling.
// A path segment matching one of these (with or without an extension) is
// rejected outright.
var reservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

func isReservedName(segment string) bool {
	base := segment
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(strings.TrimSpace(base))
	_, reserved := reservedNames[base]
	return reserved
}

// ResolveUnder resolves a user-supplied relative path against the library
// root and confirms the result cannot escape it. It returns the resolved
// absolute path and true, or "" and false when the input is rejected.
//
// Rejection is a sentinel, never a panic: traversal sequences, URL-encoded
// traversal, null bytes and reserved device names all fail closed. The one
// exception is a non-absolute root, which is caller misconfiguration and
// panics.
func ResolveUnder(root, userInput string) (string, bool) {
	if !filepath.IsAbs(root) {
		panic("library: ResolveUnder requires an absolute root")
	}

	// Strip trailing separators so the prefix check below is exact.
	root = filepath.Clean(root)

	decoded, err := url.PathUnescape(userInput)
	if err != nil {
		log.Debug().Str("input", userInput).Msg("path rejected: invalid percent encoding")
		return "", false
	}

	if strings.ContainsRune(decoded, '\x00') {
		log.Debug().Msg("path rejected: null byte")
		return "", false
	}

	for _, segment := range strings.FieldsFunc(decoded, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if isReservedName(segment) {
			log.Debug().Str("segment", segment).Msg("path rejected: reserved device name")
			return "", false
		}
	}

	resolved := filepath.Clean(filepath.Join(root, decoded))

	if resolved == root {
		return resolved, true
	}
	if strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return resolved, true
	}

	log.Debug().Str("input", userInput).Msg("path rejected: escapes library root")
	return "", false
}
