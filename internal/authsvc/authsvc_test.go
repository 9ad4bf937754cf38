// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package authsvc

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/clients"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/validation"
)

func TestRegisterValidationMessages(t *testing.T) {
	valid := registerRequest{
		Username:    "testuser",
		Email:       "test@example.com",
		Password:    "securepassword123",
		RegNumber:   "2012345",
		YearJoined:  2023,
		PhoneNumber: "+923001234567",
	}
	if ve := validation.ValidateStruct(&valid); ve != nil {
		t.Fatalf("valid request rejected: %v", ve)
	}

	tests := []struct {
		name   string
		mutate func(r *registerRequest)
		want   string
	}{
		{
			name:   "short username",
			mutate: func(r *registerRequest) { r.Username = "ab" },
			want:   "Username must be between 3 and 50 characters",
		},
		{
			name:   "bad email",
			mutate: func(r *registerRequest) { r.Email = "invalid" },
			want:   "Invalid email format. Expected: user@example.com",
		},
		{
			name:   "missing username",
			mutate: func(r *registerRequest) { r.Username = "" },
			want:   "username is required",
		},
		{
			name:   "short password",
			mutate: func(r *registerRequest) { r.Password = "short" },
			want:   "Password must be at least 8 characters long",
		},
		{
			name:   "overlong password",
			mutate: func(r *registerRequest) { r.Password = strings.Repeat("x", 129) },
			want:   "Password must be at least 8 characters long",
		},
		{
			name:   "bad reg number",
			mutate: func(r *registerRequest) { r.RegNumber = "1912345" },
			want:   "Invalid registration number. Expected format: 20XXXXX (e.g., 2012345)",
		},
		{
			name:   "year out of range",
			mutate: func(r *registerRequest) { r.YearJoined = 1999 },
			want:   "Year joined must be between 2000 and 2099. Expected format: 20XX (e.g., 2023)",
		},
		{
			name:   "bad phone",
			mutate: func(r *registerRequest) { r.PhoneNumber = "03001234567" },
			want:   "Invalid phone number format. Expected: +[country code][number] (e.g., +923001234567)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			ve := validation.ValidateStruct(&req)
			if ve == nil {
				t.Fatal("expected validation error")
			}
			if got := validationMessage(ve); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOTPValidationMessage(t *testing.T) {
	req := verifyEmailRequest{Email: "test@example.com", OTP: "12345"}
	ve := validation.ValidateStruct(&req)
	if ve == nil {
		t.Fatal("expected validation error")
	}
	if got := validationMessage(ve); got != "OTP must be exactly 6 digits" {
		t.Errorf("message = %q", got)
	}
}

func TestUniqueViolationMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "username constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"},
			want: "Username already exists. Please choose a different username.",
		},
		{
			name: "email constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			want: "Email already exists. Please use a different email or try logging in.",
		},
		{
			name: "phone number constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_unique"},
			want: "Phone number already exists. Please use a different phone number.",
		},
		{
			name: "reg number constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_reg_number_unique"},
			want: "Registration number already exists. Please check your registration number.",
		},
		{
			name: "other unique constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"},
			want: "A user with these details already exists.",
		},
		{
			name: "non-unique pg error",
			err:  &pgconn.PgError{Code: "23503"},
			want: "",
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: "",
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("creating user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}),
			want: "Username already exists. Please choose a different username.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueViolationMessage(tt.err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
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
	h := NewHandler(NewStore(nil), jwtManager, clients.NewEmailClient(config.EmailConfig{}), cfg)
	return NewRouter(h, jwtManager)
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	r := testRouter(t)
	for _, path := range []string{"/me", "/admin/check", "/admin/users"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Missing authorization header") {
			t.Errorf("GET %s body = %q", path, rec.Body.String())
		}
	}
}

func TestRouterCSRFOnStateChange(t *testing.T) {
	r := testRouter(t)

	// Logout is not CSRF-exempt; the check fires before auth.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("POST /logout status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CSRF token missing") {
		t.Errorf("body = %q", rec.Body.String())
	}

	// Login is exempt; the empty body fails later, in decoding.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /login status = %d, want 400", rec.Code)
	}
}
