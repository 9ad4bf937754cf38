// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/metrics"
)

// rateLimitHandler rejects with the JSON error envelope and counts the hit.
func rateLimitHandler(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRateLimitHit(r.URL.Path)
	httpx.Error(w, http.StatusTooManyRequests, "Too many requests")
}

// RateLimitByIP limits each client IP to requests per window.
func RateLimitByIP(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitHandler),
	)
}

// RateLimitAuth is the tight limiter for credential endpoints: 10 attempts
// per minute per IP.
func RateLimitAuth() func(http.Handler) http.Handler {
	return RateLimitByIP(10, time.Minute)
}

// RateLimitOTP is the limiter for OTP resend endpoints: 5 per minute per IP,
// on top of the per-user cooldown the auth service enforces in the database.
func RateLimitOTP() func(http.Handler) http.Handler {
	return RateLimitByIP(5, time.Minute)
}
