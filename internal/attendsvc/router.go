// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package attendsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/middleware"
)

// NewRouter assembles the attendance service's routes. Every data route
// requires a valid token; admin routes check admin_users on top.
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
		r.Use(auth.RequireAuth(jwtManager))

		r.Get("/events", h.ListEvents)
		r.Get("/events/{event_id}", h.GetEvent)
		r.Get("/events/{event_id}/attendance", h.GetEventAttendance)
		r.Get("/events/{event_id}/my-attendance", h.GetMyAttendance)
		r.Post("/events/{event_id}/availability", h.SetAvailability)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(h.store))

			r.Post("/events", h.CreateEvent)
			r.Patch("/events/{event_id}", h.UpdateEvent)
			r.Delete("/events/{event_id}", h.DeleteEvent)
			r.Post("/events/{event_id}/lock", h.LockEvent)
			r.Post("/events/{event_id}/check-in", h.CheckInUser)
			r.Post("/events/{event_id}/revoke", h.RevokeAvailability)
			r.Get("/attendance/matrix", h.GetAttendanceMatrix)
		})
	})

	return r
}
