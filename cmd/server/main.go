// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package main is the entry point for the Rift Rewind server.
//
// Rift Rewind builds a quarterly "journey" package for a League of
// Legends player: each calendar quarter's matches are fetched, scored
// into a behavioral value profile, themed to a Runeterra region, and
// narrated; the finale stitches the four quarters into a season
// summary with trends, highlights and coaching insights.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from env, config file and defaults (Koanf v2)
//  2. Storage: BadgerDB shared by the job registry and the document store
//  3. Messaging: NATS JetStream (embedded or external) with Watermill routing
//  4. Clients: Riot match data client, narrative text generator
//  5. Supervision: suture tree running the GC loop, the stage router and the HTTP API
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then the optional YAML file
// pointed to by CONFIG_PATH, then built-in defaults. RIOT_API_KEY is
// required to fetch match data; ANTHROPIC_API_KEY enables generated
// narrative text instead of the deterministic fallbacks.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the
// supervisor tree drains the message router and the HTTP server before
// the process exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewindlab/riftrewind/internal/api"
	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/narrative"
	"github.com/rewindlab/riftrewind/internal/pipeline"
	"github.com/rewindlab/riftrewind/internal/registry"
	"github.com/rewindlab/riftrewind/internal/riot"
	"github.com/rewindlab/riftrewind/internal/store"
	"github.com/rewindlab/riftrewind/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

const badgerGCInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)
	logging.Info().Str("version", version).Msg("starting rift rewind")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	reg := registry.New(db)
	st := store.New(db)

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := pipeline.NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		defer embedded.Shutdown()
		natsURL = embedded.ClientURL()
		logging.Info().Str("url", natsURL).Msg("embedded NATS server ready")
	}

	if err := pipeline.EnsureStream(ctx, natsURL); err != nil {
		return fmt.Errorf("provision journey stream: %w", err)
	}

	wmLogger := logging.NewWatermillAdapter()
	publisher, err := pipeline.NewPublisher(natsURL, wmLogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	subscriber, err := pipeline.NewSubscriber(&cfg.NATS, natsURL, wmLogger)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	riotClient := riot.NewHTTPClient(&cfg.Riot)
	generator := narrative.New(&cfg.Narrative)

	handlers := pipeline.NewHandlers(reg, st, riotClient, generator, publisher, cfg.Pipeline)
	router, err := pipeline.NewRouter(&cfg.NATS, subscriber, publisher, handlers, wmLogger)
	if err != nil {
		return err
	}

	orchestrator := pipeline.NewOrchestrator(reg, publisher)
	apiHandler := api.NewHandler(orchestrator, reg, st, version)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(apiHandler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}
	tree.AddStorageService(supervisor.NewBadgerGCService(db, badgerGCInterval))
	tree.AddMessagingService(supervisor.NewRouterService(router))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Server.Timeout))

	logging.Info().
		Str("addr", httpServer.Addr).
		Bool("narrative_enabled", cfg.Narrative.Enabled).
		Msg("supervision tree starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
