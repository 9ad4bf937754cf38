// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Command tabulation runs the tabulation service: match series, matches,
// allocations, ballots, and performance statistics. Admin status is
// resolved through the auth service behind a circuit breaker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/clients"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/database"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/tabsvc"
)

func main() {
	cfg, err := config.Load("tabulation")
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration load failed")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		logging.Fatal().Err(err).Msg("jwt setup failed")
	}

	store := tabsvc.NewStore(pool)
	handler := tabsvc.NewHandler(store)
	admins := clients.NewAdminCheckClient(cfg.Services.AuthURL)
	router := tabsvc.NewRouter(handler, jwtManager, admins, cfg)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("tabulation service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown failed")
	}
}
