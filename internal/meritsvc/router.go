// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package meritsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/middleware"
)

// NewRouter assembles the merit service's routes. Profile routes are
// public with optional auth widening what they return; everything under
// /merit and /awards requires a token, /admin additionally requires the
// admin flag.
func NewRouter(h *Handler, jwtManager *auth.JWTManager, cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/health/ready", httpx.Ready(h.store))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(jwtManager, h.store))

		r.Get("/users/{username}", h.GetUserProfile)
		r.Get("/users/{username}/awards", h.GetUserAwards)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtManager))

		r.Get("/merit/me", h.GetMyMerit)
		r.Get("/merit/me/history", h.GetMyMeritHistory)
		r.Get("/awards/me", h.GetMyAwards)
		r.Get("/awards/me/history", h.GetMyAwardHistory)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(h.store))

			r.Get("/admin/merit", h.AdminListMerits)
			r.Post("/admin/merit", h.AdminUpdateMerit)
			r.Get("/admin/merit/{user_id}", h.AdminGetUserMerit)
			r.Get("/admin/merit/{user_id}/history", h.AdminGetUserMeritHistory)

			r.Get("/admin/awards", h.AdminListAwards)
			r.Post("/admin/awards", h.AdminCreateAward)
			r.Put("/admin/awards/{award_id}", h.AdminEditAward)
			r.Patch("/admin/awards/{award_id}/upgrade", h.AdminUpgradeAward)
			r.Delete("/admin/awards/{award_id}", h.AdminDeleteAward)
			r.Get("/admin/awards/{user_id}/history", h.AdminGetUserAwardHistory)
		})
	})

	return r
}
