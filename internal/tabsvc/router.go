// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/middleware"
)

// NewRouter assembles the tabulation service's routes. The match view is
// public so draws can be shared by link; admin status is resolved through
// the auth service and widens what the view shows.
func NewRouter(h *Handler, jwtManager *auth.JWTManager, admins auth.AdminChecker, cfg *config.Config) chi.Router {
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
		r.Use(auth.OptionalAuth(jwtManager, admins))

		r.Get("/matches/{match_id}", h.GetMatch)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtManager))

		r.Get("/series", h.ListSeries)
		r.Get("/series/{series_id}", h.GetSeries)
		r.Get("/matches", h.ListMatches)
		r.Get("/matches/{match_id}/my-ballot", h.GetMyBallot)
		r.Post("/matches/{match_id}/submit-ballot", h.SubmitBallot)
		r.Post("/matches/{match_id}/submit-feedback", h.SubmitFeedback)
		r.Get("/users/{user_id}/performance", h.GetUserPerformance)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(admins))

			r.Post("/admin/series", h.CreateSeries)
			r.Put("/admin/series/{series_id}", h.UpdateSeries)
			r.Delete("/admin/series/{series_id}", h.DeleteSeries)
			r.Get("/admin/series/{series_id}/pool", h.GetAllocationPool)

			r.Post("/admin/matches", h.CreateMatch)
			r.Put("/admin/matches/{match_id}", h.UpdateMatch)
			r.Delete("/admin/matches/{match_id}", h.DeleteMatch)
			r.Post("/admin/matches/{match_id}/release", h.ToggleRelease)
			r.Get("/admin/matches/{match_id}/ballots", h.AdminGetMatchBallots)
			r.Get("/admin/matches/{match_id}/history", h.GetAllocationHistory)

			r.Put("/admin/teams/{team_id}", h.UpdateTeam)

			r.Post("/admin/allocations", h.CreateAllocation)
			r.Put("/admin/allocations/{allocation_id}", h.UpdateAllocation)
			r.Delete("/admin/allocations/{allocation_id}", h.DeleteAllocation)
			r.Post("/admin/allocations/swap", h.SwapAllocations)
		})
	})

	return r
}
