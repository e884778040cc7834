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

// Package api exposes the reconciliation engine over a small JSON API. It
// translates the core's error taxonomy into HTTP status codes and never
// leaks internal paths or upstream error detail to clients.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cratedig-project/cratedig/pkg/api/middleware"
	"github.com/cratedig-project/cratedig/pkg/config"
	"github.com/cratedig-project/cratedig/pkg/database"
	"github.com/cratedig-project/cratedig/pkg/metadata"
	"github.com/cratedig-project/cratedig/pkg/reconciler"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 5 * time.Minute

// CatalogReader is the read-only catalog port the API serves directly.
type CatalogReader interface {
	AllArtists() ([]database.Artist, error)
	Artist(id int64) (*database.Artist, error)
	ReleasesByArtist(artistID int64) ([]database.Release, error)
}

// Server wires the core components behind HTTP handlers.
type Server struct {
	cfg         *config.Instance
	reconciler  *reconciler.Reconciler
	coordinator *metadata.Coordinator
	catalog     CatalogReader
}

func NewServer(
	cfg *config.Instance,
	rec *reconciler.Reconciler,
	coord *metadata.Coordinator,
	catalog CatalogReader,
) *Server {
	return &Server{cfg: cfg, reconciler: rec, coordinator: coord, catalog: catalog}
}

// Router builds the chi router with the standard middleware stack. The
// context bounds the rate limiter's cleanup goroutine.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	limiter := middleware.NewIPRateLimiter()
	limiter.StartCleanup(ctx)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(middleware.RateLimit(limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/library/scan", s.handleScanLibrary)
		r.Post("/refresh/stale", s.handleCheckStale)
		r.Get("/search/artists", s.handleSearchArtists)

		r.Get("/artists", s.handleListArtists)
		r.Post("/artists", s.handleAddArtist)
		r.Route("/artists/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetArtist)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/reconcile", s.handleReconcile)
			r.Get("/detect-folder", s.handleDetectFolder)
			r.Post("/folder", s.handleLinkArtistFolder)
			r.Delete("/folder", s.handleUnlinkArtistFolder)
		})

		r.Route("/releases/{id}", func(r chi.Router) {
			r.Post("/folder", s.handleSetReleaseFolder)
			r.Delete("/folder", s.handleClearReleaseFolder)
			r.Post("/owned", s.handleMarkReleaseOwned)
			r.Delete("/override", s.handleClearReleaseOverride)
			r.Post("/ignored", s.handleSetReleaseIgnored)
		})
	})

	return r
}

// ListenAndServe starts the API server. It blocks until the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + strconv.Itoa(s.cfg.APIPort())
	log.Info().Str("addr", addr).Msg("starting API server")

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe() //nolint:wrapcheck // caller logs and exits
}
