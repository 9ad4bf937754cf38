// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package attendsvc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		Secret:             "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 168 * time.Hour,
	}
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"*"}}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return NewRouter(NewHandler(NewStore(nil)), jwtManager, cfg)
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDateQuery(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d, ok := dateQuery(rec, httptest.NewRequest("GET", "/events", nil), "from_date")
		if !ok || d != nil {
			t.Errorf("d = %v, ok = %v, want nil, true", d, ok)
		}
	})

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d, ok := dateQuery(rec, httptest.NewRequest("GET", "/events?from_date=2026-03-01", nil), "from_date")
		if !ok || d == nil {
			t.Fatalf("d = %v, ok = %v", d, ok)
		}
		if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !d.Equal(want) {
			t.Errorf("d = %v, want %v", d, want)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := dateQuery(rec, httptest.NewRequest("GET", "/events?to_date=03/01/2026", nil), "to_date")
		if ok {
			t.Fatal("expected rejection")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid to_date. Expected format: YYYY-MM-DD") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})
}

func TestRouterRequiresAuth(t *testing.T) {
	r := testRouter(t)
	for _, tt := range []struct{ method, path string }{
		{"GET", "/events"},
		{"GET", "/attendance/matrix"},
		{"POST", "/events"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tt.method, tt.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Missing authorization header") {
			t.Errorf("%s %s body = %q", tt.method, tt.path, rec.Body.String())
		}
	}
}
