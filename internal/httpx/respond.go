// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package httpx provides the JSON request/response conventions shared by all
// Podium services: goccy/go-json encoding, the flat {"error": ...} envelope,
// and pagination helpers.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/podium/internal/logging"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error             string `json:"error"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("failed to encode response")
	}
}

// Error writes the flat error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Errorf writes a formatted error envelope.
func Errorf(w http.ResponseWriter, status int, format string, args ...any) {
	Error(w, status, fmt.Sprintf(format, args...))
}

// ErrorWithAttempts writes an error envelope carrying the remaining OTP
// attempts, used by verification and password-reset flows.
func ErrorWithAttempts(w http.ResponseWriter, status int, message string, remaining int) {
	JSON(w, status, ErrorResponse{Error: message, AttemptsRemaining: &remaining})
}

// Message writes a {"message": ...} body with the given status.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Pinger reports backing-store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready returns the /health/ready handler: 200 when the backing store
// answers a ping, 503 otherwise.
func Ready(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Ping(r.Context()); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("readiness ping failed")
			Error(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// maxBodyBytes bounds request bodies to prevent memory exhaustion.
const maxBodyBytes = 1 << 20 // 1 MiB

// ErrEmptyBody is returned by Decode when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// Decode reads the request body into dst, rejecting unknown fields
// and bodies over 1 MiB.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// Page holds normalized pagination parameters.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the SQL offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// TotalPages returns the page count for a total row count.
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	pages := int(total) / p.PerPage
	if int(total)%p.PerPage != 0 {
		pages++
	}
	return pages
}

// ParsePage reads page/per_page query parameters, clamping page to >= 1 and
// per_page to 1..100 with the given default.
func ParsePage(r *http.Request, defaultPerPage int) Page {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}
	return Page{Number: page, PerPage: perPage}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
