// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/config"
)

func TestEmailClientSends(t *testing.T) {
	var got emailMessage
	var gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAPIKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewEmailClient(config.EmailConfig{ServiceURL: srv.URL, APIKey: "k"})
	if err := c.SendVerificationEmail(context.Background(), "a@b.com", "alice", "123456"); err != nil {
		t.Fatalf("SendVerificationEmail: %v", err)
	}

	if got.To != "a@b.com" {
		t.Errorf("To = %q", got.To)
	}
	if gotAPIKey != "k" {
		t.Errorf("X-API-Key = %q", gotAPIKey)
	}
}

func TestEmailClientDisabled(t *testing.T) {
	c := NewEmailClient(config.EmailConfig{})
	if err := c.SendWelcomeEmail(context.Background(), "a@b.com", "alice"); err != nil {
		t.Fatalf("disabled client returned error: %v", err)
	}
}

func TestEmailClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewEmailClient(config.EmailConfig{ServiceURL: srv.URL})
	if err := c.SendPasswordResetEmail(context.Background(), "a@b.com", "alice", "123456"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestAdminCheckClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/check" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer admin-token":
			json.NewEncoder(w).Encode(adminCheckResponse{IsAdmin: true})
		case "Bearer member-token":
			json.NewEncoder(w).Encode(adminCheckResponse{IsAdmin: false})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewAdminCheckClient(srv.URL)

	ctx := auth.ContextWithToken(context.Background(), "admin-token")
	isAdmin, err := c.IsAdmin(ctx, uuid.New())
	if err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	if !isAdmin {
		t.Error("admin token reported non-admin")
	}

	ctx = auth.ContextWithToken(context.Background(), "member-token")
	isAdmin, err = c.IsAdmin(ctx, uuid.New())
	if err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	if isAdmin {
		t.Error("member token reported admin")
	}

	// No token in context resolves to non-admin without a network call.
	isAdmin, err = c.IsAdmin(context.Background(), uuid.New())
	if err != nil || isAdmin {
		t.Errorf("tokenless IsAdmin = %v, %v", isAdmin, err)
	}
}

func TestAdminCheckClientUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAdminCheckClient(srv.URL)
	ctx := auth.ContextWithToken(context.Background(), "expired")
	isAdmin, err := c.IsAdmin(ctx, uuid.New())
	if err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	if isAdmin {
		t.Error("unauthorized response reported admin")
	}
}
