// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeAdminChecker struct {
	admins map[uuid.UUID]bool
	err    error
}

func (f *fakeAdminChecker) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.admins[userID], nil
}

type fakeCSRFStore struct {
	valid map[string]bool
}

func (f *fakeCSRFStore) ValidateCSRFToken(_ context.Context, token string) (bool, error) {
	return f.valid[token], nil
}

func identityEcho(t *testing.T, captured *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if ok {
			*captured = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	userID := uuid.New()
	token, err := m.GenerateAccessToken(userID, "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing authorization header"},
		{"bad scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization header format"},
		{"garbage token", "Bearer junk", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid token", "Bearer " + token, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured Identity
			handler := RequireAuth(m)(identityEcho(t, &captured))

			req := httptest.NewRequest("GET", "/events", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" && !strings.Contains(rec.Body.String(), tt.wantError) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantError)
			}
			if tt.wantStatus == http.StatusOK && captured.UserID != userID {
				t.Errorf("identity = %v, want user %s", captured, userID)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	adminID := uuid.New()
	memberID := uuid.New()
	checker := &fakeAdminChecker{admins: map[uuid.UUID]bool{adminID: true}}

	handler := RequireAuth(m)(RequireAdmin(checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminFromContext(r.Context()) {
			t.Error("admin flag missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})))

	adminToken, _ := m.GenerateAccessToken(adminID, "admin")
	memberToken, _ := m.GenerateAccessToken(memberID, "member")

	req := httptest.NewRequest("POST", "/admin/events", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("POST", "/admin/events", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Admin access required") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestOptionalAuth(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	userID := uuid.New()
	token, _ := m.GenerateAccessToken(userID, "alice")

	var captured Identity
	handler := OptionalAuth(m, nil)(identityEcho(t, &captured))

	// Anonymous request passes through without identity.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/matches/abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
	if captured.UserID != uuid.Nil {
		t.Errorf("anonymous request carried identity %v", captured)
	}

	// Invalid token is ignored, not rejected.
	req := httptest.NewRequest("GET", "/matches/abc", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("invalid-token status = %d, want 200", rec.Code)
	}

	// Valid token attaches identity.
	req = httptest.NewRequest("GET", "/matches/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if captured.UserID != userID {
		t.Errorf("identity = %v, want user %s", captured, userID)
	}
}

func TestCSRFProtect(t *testing.T) {
	store := &fakeCSRFStore{valid: map[string]bool{"good-token": true}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := CSRFProtect(store)(ok)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantError  string
	}{
		{"get passes", "GET", "/me", "", http.StatusOK, ""},
		{"login exempt", "POST", "/login", "", http.StatusOK, ""},
		{"register exempt", "POST", "/register", "", http.StatusOK, ""},
		{"missing token", "POST", "/logout", "", http.StatusForbidden, "CSRF token missing"},
		{"bad token", "PUT", "/profile", "bad", http.StatusForbidden, "Invalid or expired CSRF token"},
		{"good token", "POST", "/logout", "good-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(CSRFHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantError != "" && !strings.Contains(rec.Body.String(), tt.wantError) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantError)
			}
		})
	}
}
