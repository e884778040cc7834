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
	"strings"

	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
)

const (
	// yearTolerance is how far a folder's parsed year may drift from the
	// release year and still be a candidate. Regional releases and
	// remasters are commonly tagged a year off.
	yearTolerance = 1

	// inclusionThreshold is the lenient similarity floor applied while
	// scoring candidates. It is deliberately looser than the configured
	// acceptance threshold so near-misses survive to the selection step
	// and can still be classified ambiguous.
	inclusionThreshold = 0.50
)

// Verdict is the per-release outcome of a matching run.
type Verdict struct {
	FolderPath string
	Status     database.OwnershipStatus
	Confidence float32
}

// titleSimilarity scores how well a release title is contained in a folder
// title, in [0,1]. Each release token is paired with its closest unused
// folder token and the per-token similarities are averaged, weighted by
// token length. Extra folder tokens like edition tags and remaster suffixes
// never reduce the score; release tokens without a counterpart do. Word
// order is irrelevant because pairing ignores token positions.
func titleSimilarity(release, folder string) float32 {
	releaseTokens := strings.Fields(release)
	folderTokens := strings.Fields(folder)
	if len(releaseTokens) == 0 || len(folderTokens) == 0 {
		return 0
	}

	used := make([]bool, len(folderTokens))
	var weighted, total float32
	for _, token := range releaseTokens {
		var best float32
		bestIdx := -1
		for i, candidate := range folderTokens {
			if used[i] {
				continue
			}
			if score := tokenSimilarity(token, candidate); score > best {
				best = score
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
		}

		weight := float32(len([]rune(token)))
		weighted += weight * best
		total += weight
	}
	return weighted / total
}

// tokenSimilarity converts Damerau-Levenshtein distance between two tokens
// into a similarity in [0,1].
func tokenSimilarity(a, b string) float32 {
	if a == b {
		return 1
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}

	sim := 1 - float32(edlib.DamerauLevenshteinDistance(a, b))/float32(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// MatchReleases pairs each release with its best candidate folder and
// classifies the result against the acceptance threshold.
//
// The year pre-filter runs first so the string similarity work only touches
// a shrunk candidate set. The function is deterministic: identical inputs
// always produce identical verdicts, which rescans rely on.
func MatchReleases(
	releases []database.Release,
	folders []database.Folder,
	threshold float32,
) map[string]Verdict {
	verdicts := make(map[string]Verdict, len(releases))

	for i := range releases {
		release := &releases[i]
		verdicts[release.MBID] = matchRelease(release, folders, threshold)
	}

	return verdicts
}

func matchRelease(
	release *database.Release,
	folders []database.Folder,
	threshold float32,
) Verdict {
	missing := Verdict{Status: database.StatusMissing, Confidence: 0}

	if release.ReleaseYear == nil {
		return missing
	}

	var candidates []*database.Folder
	for i := range folders {
		folder := &folders[i]
		if folder.ParsedYear == nil {
			continue
		}
		diff := *folder.ParsedYear - *release.ReleaseYear
		if diff < 0 {
			diff = -diff
		}
		if diff <= yearTolerance {
			candidates = append(candidates, folder)
		}
	}
	if len(candidates) == 0 {
		return missing
	}

	normTitle := NormalizeTitle(release.Title)

	var best *database.Folder
	var bestScore float32
	for _, candidate := range candidates {
		score := titleSimilarity(normTitle, candidate.ParsedTitle)
		if score < inclusionThreshold {
			continue
		}
		if best == nil || score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if best == nil {
		return missing
	}

	log.Debug().
		Str("release", release.Title).
		Str("folder", best.Name).
		Float32("similarity", bestScore).
		Msg("best folder candidate")

	if bestScore >= threshold {
		return Verdict{
			Status:     database.StatusOwned,
			Confidence: bestScore,
			FolderPath: best.Path,
		}
	}
	return Verdict{
		Status:     database.StatusAmbiguous,
		Confidence: bestScore,
		FolderPath: best.Path,
	}
}
