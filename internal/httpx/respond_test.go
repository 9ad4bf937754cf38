// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 404, "Event not found")

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Event not found"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestErrorWithAttempts(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorWithAttempts(rec, 401, "Invalid OTP", 3)

	body := rec.Body.String()
	if !strings.Contains(body, `"attempts_remaining":3`) {
		t.Errorf("body = %q", body)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(pingerFunc(func(context.Context) error { return nil })).
		ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Ready(pingerFunc(func(context.Context) error { return errors.New("dial refused") })).
		ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Database unavailable") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDecodeRejectsEmptyAndGarbage(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	if err := Decode(rec, req, &dst); err == nil {
		t.Error("expected error for malformed JSON")
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"alice"}`))
	if err := Decode(rec, req, &dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dst.Name != "alice" {
		t.Errorf("Name = %q", dst.Name)
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "/x", 1, 20},
		{"explicit", "/x?page=3&per_page=50", 3, 50},
		{"clamp low", "/x?page=0&per_page=0", 1, 1},
		{"clamp high", "/x?per_page=500", 1, 100},
		{"garbage", "/x?page=abc&per_page=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePage(httptest.NewRequest("GET", tt.url, nil), 20)
			if p.Number != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got page=%d per_page=%d, want %d/%d", p.Number, p.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestPageMath(t *testing.T) {
	p := Page{Number: 3, PerPage: 20}
	if p.Offset() != 40 {
		t.Errorf("Offset = %d", p.Offset())
	}
	if got := p.TotalPages(41); got != 3 {
		t.Errorf("TotalPages(41) = %d, want 3", got)
	}
	if got := p.TotalPages(40); got != 2 {
		t.Errorf("TotalPages(40) = %d, want 2", got)
	}
	if got := p.TotalPages(0); got != 0 {
		t.Errorf("TotalPages(0) = %d, want 0", got)
	}
}
