// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package validation

import (
	"strings"
	"testing"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func TestValidateStructPasses(t *testing.T) {
	req := registerRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	}

	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct: %v", err)
	}
}

func TestValidateStructMessages(t *testing.T) {
	tests := []struct {
		name    string
		req     registerRequest
		wantSub string
	}{
		{
			name:    "missing username",
			req:     registerRequest{Email: "a@b.com", Password: "longenough"},
			wantSub: "username is required",
		},
		{
			name:    "short username",
			req:     registerRequest{Username: "ab", Email: "a@b.com", Password: "longenough"},
			wantSub: "username must be at least 3 characters",
		},
		{
			name:    "bad email",
			req:     registerRequest{Username: "alice", Email: "not-an-email", Password: "longenough"},
			wantSub: "email must be a valid email address",
		},
		{
			name:    "short password",
			req:     registerRequest{Username: "alice", Email: "a@b.com", Password: "short"},
			wantSub: "password must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestValidateStructJoinsMultipleErrors(t *testing.T) {
	err := ValidateStruct(&registerRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := len(err.Errors()); got != 3 {
		t.Fatalf("len(Errors()) = %d, want 3", got)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("error = %q, want joined messages", err.Error())
	}
}

func TestOneofTranslation(t *testing.T) {
	type req struct {
		EventType string `json:"event_type" validate:"required,oneof=tournament weekly_match meeting other"`
	}

	err := ValidateStruct(&req{EventType: "banquet"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := "event_type must be one of: tournament weekly_match meeting other"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned distinct instances")
	}
}
