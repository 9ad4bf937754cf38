// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Command auth runs the authentication service: registration, login,
// token refresh, CSRF, email verification, and password reset.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/authsvc"
	"github.com/tomtom215/podium/internal/clients"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/database"
	"github.com/tomtom215/podium/internal/logging"
)

func main() {
	cfg, err := config.Load("auth")
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

	store := authsvc.NewStore(pool)
	email := clients.NewEmailClient(cfg.Email)
	handler := authsvc.NewHandler(store, jwtManager, email, cfg)
	router := authsvc.NewRouter(handler, jwtManager)

	// Hourly sweep of expired refresh, CSRF, verification, and reset
	// tokens.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.CleanupExpired(ctx); err != nil {
					logging.Warn().Err(err).Msg("token cleanup failed")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("auth service listening")
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
