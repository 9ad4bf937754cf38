// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package authsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/middleware"
)

// NewRouter assembles the auth service's routes. CORS sits outermost so
// error responses carry the headers; CSRF protection wraps every
// state-changing route except the exempt pre-login paths.
func NewRouter(h *Handler, jwtManager *auth.JWTManager) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.CORS(h.cfg.CORS))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/health/ready", httpx.Ready(h.store))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.CSRFProtect(h.store))

		// Public routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth())
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitOTP())
			r.Post("/verify-email", h.VerifyEmail)
			r.Post("/verify-otp", h.VerifyEmail) // legacy alias
			r.Post("/resend-verification", h.ResendVerification)
			r.Post("/request-password-reset", h.RequestPasswordReset)
			r.Post("/reset-password", h.ResetPassword)
		})
		r.Get("/csrf-token", h.CSRFToken)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtManager))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Get("/admin/check", h.AdminCheck)

			// Admin routes.
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(h.store))
				r.Get("/admin/users", h.AdminListUsers)
				r.Post("/admin/promote", h.AdminPromote)
				r.Post("/admin/demote", h.AdminDemote)
			})
		})
	})

	return r
}
