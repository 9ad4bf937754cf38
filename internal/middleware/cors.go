// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/tomtom215/podium/internal/config"
)

// CORS builds the cross-origin middleware for cfg. Three modes:
//
//   - strict: only the enumerated origins, credentials allowed, and a fixed
//     header allowlist
//   - permissive wildcard ("*" present): any origin, any headers, no
//     credentials (browsers reject credentials with a wildcard origin)
//   - permissive specific: the enumerated origins with credentials and any
//     headers
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	if cfg.StrictMode {
		return cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		})
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			return cors.Handler(cors.Options{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
				MaxAge:           300,
			})
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
