// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package meritsvc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

func TestUpdateMeritRequestValidation(t *testing.T) {
	valid := updateMeritRequest{
		UserID:       uuid.New(),
		ChangeAmount: 5,
		Reason:       "Won the weekly debate",
	}

	tests := []struct {
		name   string
		mutate func(*updateMeritRequest)
		wantOK bool
	}{
		{"valid", func(*updateMeritRequest) {}, true},
		{"negative change", func(r *updateMeritRequest) { r.ChangeAmount = -10 }, true},
		{"zero change", func(r *updateMeritRequest) { r.ChangeAmount = 0 }, false},
		{"missing user", func(r *updateMeritRequest) { r.UserID = uuid.Nil }, false},
		{"reason too short", func(r *updateMeritRequest) { r.Reason = "ok" }, false},
		{"reason too long", func(r *updateMeritRequest) { r.Reason = strings.Repeat("x", 501) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := validation.ValidateStruct(&req)
			if ok := err == nil; ok != tt.wantOK {
				t.Errorf("valid = %v, want %v (err: %v)", ok, tt.wantOK, err)
			}
		})
	}
}

func TestCreateAwardRequestValidation(t *testing.T) {
	long := strings.Repeat("x", 1001)
	valid := createAwardRequest{
		UserID: uuid.New(),
		Title:  "Best Speaker",
		Tier:   models.TierBronze,
		Reason: "Outstanding performance at nationals",
	}

	tests := []struct {
		name   string
		mutate func(*createAwardRequest)
		wantOK bool
	}{
		{"valid", func(*createAwardRequest) {}, true},
		{"with description", func(r *createAwardRequest) { d := "notes"; r.Description = &d }, true},
		{"empty title", func(r *createAwardRequest) { r.Title = "" }, false},
		{"bad tier", func(r *createAwardRequest) { r.Tier = "platinum" }, false},
		{"description too long", func(r *createAwardRequest) { r.Description = &long }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := validation.ValidateStruct(&req)
			if ok := err == nil; ok != tt.wantOK {
				t.Errorf("valid = %v, want %v (err: %v)", ok, tt.wantOK, err)
			}
		})
	}
}

func TestTierUpgradeOrdering(t *testing.T) {
	tests := []struct {
		from, to models.AwardTier
		allowed  bool
	}{
		{models.TierBronze, models.TierSilver, true},
		{models.TierBronze, models.TierGold, true},
		{models.TierSilver, models.TierGold, true},
		{models.TierSilver, models.TierBronze, false},
		{models.TierGold, models.TierGold, false},
		{models.TierGold, models.TierSilver, false},
	}
	for _, tt := range tests {
		if got := tt.to.Rank() > tt.from.Rank(); got != tt.allowed {
			t.Errorf("%s -> %s allowed = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func testRouter(t *testing.T) chi.Router {
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

// The admin award-history route is keyed by user, not by award: it
// returns the tier changes across all of one user's awards.
func TestAwardHistoryRouteKeyedByUser(t *testing.T) {
	r := testRouter(t)
	routes := map[string]bool{}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes[method+" "+route] = true
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !routes["GET /admin/awards/{user_id}/history"] {
		t.Error("GET /admin/awards/{user_id}/history not registered")
	}
	if routes["GET /admin/awards/{award_id}/history"] {
		t.Error("award history registered under award_id")
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	r := testRouter(t)
	for _, tt := range []struct{ method, path string }{
		{"GET", "/merit/me"},
		{"GET", "/awards/me"},
		{"GET", "/admin/merit"},
		{"POST", "/admin/merit"},
		{"POST", "/admin/awards"},
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
