// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package main is the entry point for the yapd service.
//
// Yapd learns a first-order word-succession model from chat messages and
// generates new sentences by weighted random walk. Components start in
// this order:
//
//  1. Configuration: koanf v2 layered load (defaults, YAML file, YAPCORE_* env)
//  2. Logging: global zerolog logger
//  3. Persistence: BadgerDB snapshot store, model restored from the last save
//  4. Ingestion: watermill pipeline feeding the trainer
//  5. Supervision: suture tree running the pipeline, snapshot loop,
//     optional autogen timer, and the HTTP server
//
// Shutdown on SIGINT/SIGTERM drains HTTP connections, stops the pipeline,
// and writes a final snapshot if the model changed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/yapbot/yapcore/internal/api"
	"github.com/yapbot/yapcore/internal/config"
	"github.com/yapbot/yapcore/internal/ingest"
	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
	"github.com/yapbot/yapcore/internal/metrics"
	"github.com/yapbot/yapcore/internal/persistence"
	"github.com/yapbot/yapcore/internal/supervisor"
	"github.com/yapbot/yapcore/internal/supervisor/services"
	"github.com/yapbot/yapcore/internal/tokenizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Bool("persistence", cfg.Persistence.Enabled).
		Bool("autogen", cfg.Generation.AutogenEnabled).
		Msg("Starting yapd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Service failed")
	}
	logging.Info().Msg("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Model, restored from the last snapshot when persistence is on.
	var store *markov.Store
	var snapStore *persistence.Store
	loadedVersion := uint64(0)

	if cfg.Persistence.Enabled {
		var err error
		snapStore, err = persistence.Open(persistence.Config{
			Dir:        cfg.Persistence.Dir,
			SyncWrites: cfg.Persistence.SyncWrites,
		})
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer func() {
			if err := snapStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot store")
			}
		}()

		snap := snapStore.Load()
		store = markov.Restore(snap)
		loadedVersion = snap.Version
	} else {
		store = markov.NewStore()
	}

	st := store.Stats()
	metrics.UpdateModelStats(st.Tokens, st.Transitions, st.StartWords, st.Version)

	tok := tokenizer.New(tokenizer.Options{
		CaseFold:         cfg.Tokenizer.CaseFold,
		StripPunctuation: cfg.Tokenizer.StripPunctuation,
		CommandPrefixes:  cfg.Tokenizer.CommandPrefixes,
		SkipLinks:        cfg.Tokenizer.SkipLinks,
	})

	gen := markov.NewGenerator(store, markov.GeneratorConfig{
		MaxWords: cfg.Generation.MaxWords,
		MinWords: cfg.Generation.MinWords,
	})

	// Ingestion pipeline.
	trainer := ingest.NewTrainer(tok, store)
	pipeline, err := ingest.NewPipeline(ingest.PipelineConfig{
		Buffer:               cfg.Ingest.Buffer,
		CloseTimeout:         cfg.Ingest.CloseTimeout,
		RetryMaxRetries:      cfg.Ingest.RetryMaxRetries,
		RetryInitialInterval: cfg.Ingest.RetryInitialInterval,
		RetryMaxInterval:     cfg.Ingest.RetryMaxInterval,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    cfg.Ingest.ThrottlePerSecond,
	}, trainer, logging.NewWatermillAdapter())
	if err != nil {
		return fmt.Errorf("create ingest pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ingest pipeline")
		}
	}()

	// HTTP surface.
	handler := api.NewHandler(store, gen, tok, pipeline)
	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Server.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Server.RateLimitDisabled
	mwCfg.GenerateCooldown = cfg.Generation.Cooldown

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mwCfg).Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	// Supervision tree.
	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddIngestService(services.NewIngestService(pipeline))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if cfg.Persistence.Enabled {
		tree.AddPersistenceService(services.NewSnapshotService(
			store, snapStore, cfg.Persistence.Interval, loadedVersion))
	}
	if cfg.Generation.AutogenEnabled {
		tree.AddIngestService(services.NewAutogenService(
			gen, services.LogSink{}, cfg.Generation.AutogenInterval))
	}

	logging.Info().Str("addr", server.Addr).Msg("Supervision tree starting")
	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
