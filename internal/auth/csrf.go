// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
)

// CSRFHeader is the request header carrying the anti-CSRF token.
const CSRFHeader = "X-CSRF-Token"

// CSRFValidator checks a presented token against the csrf_tokens table.
type CSRFValidator interface {
	ValidateCSRFToken(ctx context.Context, token string) (bool, error)
}

// csrfExemptSuffixes lists path suffixes that skip CSRF enforcement:
// the endpoints a client must be able to call before it holds a token.
var csrfExemptSuffixes = []string{
	"/register",
	"/login",
	"/verify-email",
	"/verify-otp",
	"/resend-verification",
	"/request-password-reset",
	"/reset-password",
	"/csrf-token",
}

func csrfExempt(path string) bool {
	for _, suffix := range csrfExemptSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// CSRFProtect enforces a valid X-CSRF-Token header on mutating requests.
// Safe methods and the pre-token whitelist pass through.
func CSRFProtect(store CSRFValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			if csrfExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" {
				httpx.Error(w, http.StatusForbidden, "CSRF token missing")
				return
			}

			valid, err := store.ValidateCSRFToken(r.Context(), token)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("csrf validation failed")
				httpx.Error(w, http.StatusInternalServerError, "Database error")
				return
			}
			if !valid {
				httpx.Error(w, http.StatusForbidden, "Invalid or expired CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
