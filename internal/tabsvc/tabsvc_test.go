// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

func TestCreateSeriesRequestValidation(t *testing.T) {
	valid := createSeriesRequest{
		EventID:    uuid.New(),
		Name:       "Round 1",
		TeamFormat: models.FormatTwoTeam,
	}

	tests := []struct {
		name   string
		mutate func(*createSeriesRequest)
		wantOK bool
	}{
		{"valid", func(*createSeriesRequest) {}, true},
		{"four team", func(r *createSeriesRequest) { r.TeamFormat = models.FormatFourTeam }, true},
		{"with round number", func(r *createSeriesRequest) { n := 3; r.RoundNumber = &n }, true},
		{"missing event", func(r *createSeriesRequest) { r.EventID = uuid.Nil }, false},
		{"empty name", func(r *createSeriesRequest) { r.Name = "" }, false},
		{"name too long", func(r *createSeriesRequest) { r.Name = strings.Repeat("x", 256) }, false},
		{"bad format", func(r *createSeriesRequest) { r.TeamFormat = "three_team" }, false},
		{"zero round number", func(r *createSeriesRequest) { n := 0; r.RoundNumber = &n }, false},
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

func TestCreateAllocationRequestValidation(t *testing.T) {
	userID := uuid.New()
	valid := createAllocationRequest{
		MatchID: uuid.New(),
		UserID:  &userID,
		Role:    models.RoleSpeaker,
	}

	tests := []struct {
		name   string
		mutate func(*createAllocationRequest)
		wantOK bool
	}{
		{"valid", func(*createAllocationRequest) {}, true},
		{"guest", func(r *createAllocationRequest) { r.UserID = nil; g := "Visiting Judge"; r.GuestName = &g }, true},
		{"adjudicator", func(r *createAllocationRequest) { r.Role = models.RoleVotingAdjudicator }, true},
		{"missing match", func(r *createAllocationRequest) { r.MatchID = uuid.Nil }, false},
		{"bad role", func(r *createAllocationRequest) { r.Role = "observer" }, false},
		{"empty guest name", func(r *createAllocationRequest) { g := ""; r.GuestName = &g }, false},
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

func TestSubmitBallotRequestValidation(t *testing.T) {
	long := strings.Repeat("x", 5001)
	valid := submitBallotRequest{
		SpeakerScores: []speakerScoreEntry{},
		TeamRankings: []teamRankEntry{
			{TeamID: uuid.New(), Rank: 1},
			{TeamID: uuid.New(), Rank: 2},
		},
	}

	tests := []struct {
		name   string
		mutate func(*submitBallotRequest)
		wantOK bool
	}{
		{"valid", func(*submitBallotRequest) {}, true},
		{"with notes", func(r *submitBallotRequest) { n := "close round"; r.Notes = &n }, true},
		{"notes too long", func(r *submitBallotRequest) { r.Notes = &long }, false},
		{"zero rank", func(r *submitBallotRequest) { r.TeamRankings = []teamRankEntry{{TeamID: uuid.New(), Rank: 0}} }, false},
		{"missing team", func(r *submitBallotRequest) { r.TeamRankings = []teamRankEntry{{Rank: 1}} }, false},
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

type allowAllAdmins struct{}

func (allowAllAdmins) IsAdmin(context.Context, uuid.UUID) (bool, error) { return true, nil }

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
	return NewRouter(NewHandler(NewStore(nil)), jwtManager, allowAllAdmins{}, cfg)
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

func TestRouterRequiresAuth(t *testing.T) {
	r := testRouter(t)
	matchID := uuid.NewString()
	for _, tt := range []struct{ method, path string }{
		{"GET", "/series"},
		{"GET", "/matches"},
		{"GET", "/matches/" + matchID + "/my-ballot"},
		{"POST", "/matches/" + matchID + "/submit-ballot"},
		{"POST", "/admin/series"},
		{"POST", "/admin/allocations"},
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
