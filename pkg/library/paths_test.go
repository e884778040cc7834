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
)

func TestResolveUnder(t *testing.T) {
	t.Parallel()

	const root = "/music"

	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "simple_relative_path",
			input:    "Pink Floyd",
			expected: "/music/Pink Floyd",
			ok:       true,
		},
		{
			name:     "nested_relative_path",
			input:    "Pink Floyd/[1973] The Dark Side of the Moon",
			expected: "/music/Pink Floyd/[1973] The Dark Side of the Moon",
			ok:       true,
		},
		{
			name:     "dot_resolves_to_root",
			input:    ".",
			expected: "/music",
			ok:       true,
		},
		{
			name:     "internal_traversal_stays_confined",
			input:    "Pink Floyd/../The Beatles",
			expected: "/music/The Beatles",
			ok:       true,
		},
		{
			name:  "parent_traversal_rejected",
			input: "../etc/passwd",
			ok:    false,
		},
		{
			name:  "deep_traversal_rejected",
			input: "a/../../etc",
			ok:    false,
		},
		{
			name:  "url_encoded_traversal_rejected",
			input: "%2e%2e%2fetc",
			ok:    false,
		},
		{
			name:  "mixed_encoded_traversal_rejected",
			input: "..%2F..%2Fetc%2Fpasswd",
			ok:    false,
		},
		{
			name:  "invalid_percent_encoding_rejected",
			input: "foo%zzbar",
			ok:    false,
		},
		{
			name:  "null_byte_rejected",
			input: "Pink\x00Floyd",
			ok:    false,
		},
		{
			name:  "encoded_null_byte_rejected",
			input: "Pink%00Floyd",
			ok:    false,
		},
		{
			name:  "reserved_device_name_rejected",
			input: "CON",
			ok:    false,
		},
		{
			name:  "reserved_name_with_extension_rejected",
			input: "aux.txt",
			ok:    false,
		},
		{
			name:  "reserved_name_in_segment_rejected",
			input: "Pink Floyd/com1/whatever",
			ok:    false,
		},
		{
			name:     "reserved_prefix_without_dot_accepted",
			input:    "console",
			expected: "/music/console",
			ok:       true,
		},
		{
			name:  "backslash_traversal_rejected_on_reserved",
			input: "a\\nul\\b",
			ok:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resolved, ok := ResolveUnder(root, tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, resolved)
			} else {
				assert.Empty(t, resolved)
			}
		})
	}
}

func TestResolveUnderTrailingSlashRoot(t *testing.T) {
	t.Parallel()

	resolved, ok := ResolveUnder("/music/", "Pink Floyd")
	assert.True(t, ok)
	assert.Equal(t, "/music/Pink Floyd", resolved)
}

func TestResolveUnderPanicsOnRelativeRoot(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_, _ = ResolveUnder("music", "Pink Floyd")
	})
}
