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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/cratedig-project/cratedig/pkg/metadata"
	"github.com/cratedig-project/cratedig/pkg/metadata/musicbrainz"
	"github.com/cratedig-project/cratedig/pkg/reconciler"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the core error taxonomy onto HTTP statuses. External
// service detail stays in the logs; clients get a generic message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, metadata.ErrRefreshInFlight):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "refresh already in progress"})
	case errors.Is(err, metadata.ErrServiceUnavailable):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "metadata service unavailable"})
	case errors.Is(err, reconciler.ErrPathRejected):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid path"})
	case errors.Is(err, database.ErrReleaseOwned):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "release is owned"})
	case errors.Is(err, database.ErrNoMatchedFolder):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "release has no matched folder"})
	case errors.Is(err, database.ErrArtistExists):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "artist already in catalog"})
	case errors.Is(err, musicbrainz.ErrInvalidMBID):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist mbid"})
	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	if err := validate.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request parameters"})
		return false
	}
	return true
}

func artistResponse(artist *database.Artist) ArtistResponse {
	resp := ArtistResponse{
		ID:         artist.DBID,
		MBID:       artist.MBID,
		Name:       artist.Name,
		FolderPath: artist.FolderPath,
	}
	if !artist.LastRefreshedAt.IsZero() {
		resp.LastRefreshed = artist.LastRefreshedAt.Format(time.RFC3339)
	}
	return resp
}

func releaseResponse(release database.Release) ReleaseResponse {
	return ReleaseResponse{
		ID:             release.DBID,
		MBID:           release.MBID,
		Title:          release.Title,
		Status:         string(release.Status),
		FolderPath:     release.FolderPath,
		ReleaseDate:    release.ReleaseDate,
		ReleaseYear:    release.ReleaseYear,
		Confidence:     release.Confidence,
		ManualOverride: release.ManualOverride,
		Ignored:        release.Ignored,
	}
}

func (s *Server) handleSearchArtists(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing query parameter q"})
		return
	}

	found, err := s.coordinator.SearchArtists(r.Context(), term)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SearchArtistsResponse{Results: make([]SearchArtistResult, 0, len(found))}
	for _, hit := range found {
		resp.Results = append(resp.Results, SearchArtistResult{
			MBID:           hit.MBID,
			Name:           hit.Name,
			SortName:       hit.SortName,
			Disambiguation: hit.Disambiguation,
			Score:          hit.Score,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListArtists(w http.ResponseWriter, _ *http.Request) {
	artists, err := s.catalog.AllArtists()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ArtistResponse, 0, len(artists))
	for i := range artists {
		resp = append(resp, artistResponse(&artists[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddArtist(w http.ResponseWriter, r *http.Request) {
	var req AddArtistRequest
	if !decodeBody(w, r, &req) {
		return
	}

	artist, result, err := s.coordinator.AddArtist(r.Context(), req.MBID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := AddArtistResponse{Artist: artistResponse(artist)}
	if result != nil {
		resp.Refresh = &RefreshResponse{
			NewReleases: result.NewReleases,
			RefreshedAt: result.RefreshedAt.Format(time.RFC3339),
			Message:     result.Message,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	artist, err := s.catalog.Artist(id)
	if err != nil {
		writeError(w, err)
		return
	}

	releases, err := s.catalog.ReleasesByArtist(id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ArtistDetailResponse{
		Artist:   artistResponse(artist),
		Releases: make([]ReleaseResponse, 0, len(releases)),
	}
	for _, release := range releases {
		resp.Releases = append(resp.Releases, releaseResponse(release))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScanLibrary(w http.ResponseWriter, r *http.Request) {
	folders, err := s.reconciler.ScanLibrary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Folders: folders})
}

func (s *Server) handleCheckStale(w http.ResponseWriter, r *http.Request) {
	result, err := s.coordinator.CheckStale(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := StaleCheckResponse{
		Refreshed:  result.Refreshed,
		ArtistID:   result.ArtistID,
		ArtistName: result.ArtistName,
	}
	if result.Result != nil {
		resp.Refresh = &RefreshResponse{
			NewReleases: result.Result.NewReleases,
			RefreshedAt: result.Result.RefreshedAt.Format(time.RFC3339),
			Message:     result.Result.Message,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	result, err := s.coordinator.Refresh(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		NewReleases: result.NewReleases,
		RefreshedAt: result.RefreshedAt.Format(time.RFC3339),
		Message:     result.Message,
	})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	result, err := s.reconciler.ReconcileArtist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{
		FolderPath:     result.FolderPath,
		ScannedFolders: result.ScannedFolders,
		Owned:          result.Owned,
		Missing:        result.Missing,
		Ambiguous:      result.Ambiguous,
		Skipped:        result.Skipped,
	})
}

func (s *Server) handleDetectFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	path, err := s.reconciler.DetectArtistFolder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetectFolderResponse{Path: path})
}

func (s *Server) handleLinkArtistFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	var req SetFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.reconciler.LinkArtistFolder(id, req.Path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlinkArtistFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid artist id"})
		return
	}

	if err := s.reconciler.UnlinkArtistFolder(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetReleaseFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid release id"})
		return
	}

	var req SetFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.reconciler.SetReleaseFolder(id, req.Path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearReleaseFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid release id"})
		return
	}

	if err := s.reconciler.ClearReleaseFolder(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkReleaseOwned(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid release id"})
		return
	}

	if err := s.reconciler.MarkReleaseOwned(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearReleaseOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid release id"})
		return
	}

	if err := s.reconciler.ClearReleaseOverride(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetReleaseIgnored(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid release id"})
		return
	}

	var req SetIgnoredRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.reconciler.SetReleaseIgnored(id, *req.Ignored); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
