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

package reconciler

import (
	"fmt"

	"github.com/cratedig-project/cratedig/pkg/library"
)

// Manual override operations. These are single-entry state transitions, not
// reconciliation runs; an overridden entry stays untouched by automatic
// matching until the override is cleared.

// LinkArtistFolder pins an artist to a library folder, overriding
// auto-detection. The path is user-supplied and relative to the library
// root; confinement failures return ErrPathRejected.
func (r *Reconciler) LinkArtistFolder(artistID int64, userPath string) error {
	resolved, ok := library.ResolveUnder(r.scanner.Root(), userPath)
	if !ok {
		return ErrPathRejected
	}
	if err := r.store.SetArtistFolder(artistID, resolved); err != nil {
		return fmt.Errorf("failed to link artist folder: %w", err)
	}
	return nil
}

// UnlinkArtistFolder removes an explicit folder link, restoring
// auto-detection on the next reconcile.
func (r *Reconciler) UnlinkArtistFolder(artistID int64) error {
	if err := r.store.SetArtistFolder(artistID, ""); err != nil {
		return fmt.Errorf("failed to unlink artist folder: %w", err)
	}
	return nil
}

// SetReleaseFolder records a user-chosen folder for a release: the release
// becomes owned, manually overridden and un-ignored.
func (r *Reconciler) SetReleaseFolder(releaseID int64, userPath string) error {
	resolved, ok := library.ResolveUnder(r.scanner.Root(), userPath)
	if !ok {
		return ErrPathRejected
	}
	if err := r.store.SetReleaseFolder(releaseID, resolved); err != nil {
		return fmt.Errorf("failed to set release folder: %w", err)
	}
	return nil
}

// ClearReleaseFolder removes the folder link: the release becomes missing
// and stays manually overridden.
func (r *Reconciler) ClearReleaseFolder(releaseID int64) error {
	if err := r.store.ClearReleaseFolder(releaseID); err != nil {
		return fmt.Errorf("failed to clear release folder: %w", err)
	}
	return nil
}

// MarkReleaseOwned promotes a release with a previously matched folder to
// owned; it fails when no folder has ever been matched.
func (r *Reconciler) MarkReleaseOwned(releaseID int64) error {
	if err := r.store.MarkReleaseOwned(releaseID); err != nil {
		return fmt.Errorf("failed to mark release owned: %w", err)
	}
	return nil
}

// ClearReleaseOverride reverts a release to automatic-matching eligibility
// without changing its current status.
func (r *Reconciler) ClearReleaseOverride(releaseID int64) error {
	if err := r.store.ClearReleaseOverride(releaseID); err != nil {
		return fmt.Errorf("failed to clear release override: %w", err)
	}
	return nil
}

// SetReleaseIgnored hides or unhides an unowned release. Ignoring an owned
// release is invalid; un-ignoring has no precondition.
func (r *Reconciler) SetReleaseIgnored(releaseID int64, ignored bool) error {
	if err := r.store.SetReleaseIgnored(releaseID, ignored); err != nil {
		return fmt.Errorf("failed to set release ignored flag: %w", err)
	}
	return nil
}
