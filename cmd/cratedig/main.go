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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cratedig-project/cratedig/pkg/api"
	"github.com/cratedig-project/cratedig/pkg/config"
	"github.com/cratedig-project/cratedig/pkg/database/catalogdb"
	"github.com/cratedig-project/cratedig/pkg/helpers"
	"github.com/cratedig-project/cratedig/pkg/library"
	"github.com/cratedig-project/cratedig/pkg/metadata"
	"github.com/cratedig-project/cratedig/pkg/metadata/musicbrainz"
	"github.com/cratedig-project/cratedig/pkg/reconciler"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := flag.String("config", defaultDir(".config"), "config directory")
	dataDir := flag.String("data", defaultDir(".local/share"), "data directory")
	verbose := flag.Bool("verbose", false, "log to console as well as file")
	flag.Parse()

	var consoleWriters []io.Writer
	if *verbose {
		consoleWriters = append(consoleWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(*dataDir, consoleWriters); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(*configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := catalogdb.Open(ctx, *dataDir)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close database")
		}
	}()

	scanner := library.NewScanner(afero.NewOsFs(), cfg.LibraryRoot())
	client := musicbrainz.NewClient(cfg.MetadataBaseURL())
	coordinator := metadata.NewCoordinator(cfg, db, client, nil)
	rec := reconciler.New(cfg, db, scanner)

	server := api.NewServer(cfg, rec, coordinator, db)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(ctx)
	}()

	log.Info().Str("library", cfg.LibraryRoot()).Msg("cratedig started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	}
}

func defaultDir(base string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./" + base + "/cratedig"
	}
	return home + "/" + base + "/cratedig"
}
