// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/config"
)

func testJWTManager(t *testing.T, accessExpiry time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.JWTConfig{
		Secret:             "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ValidateToken(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q", claims.Username)
	}
	got, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if got != userID {
		t.Errorf("UserID = %s, want %s", got, userID)
	}
	if claims.ID == "" {
		t.Error("jti claim is empty")
	}
}

func TestTokenTypeEnforced(t *testing.T) {
	m := testJWTManager(t, time.Minute)

	refresh, err := m.GenerateRefreshToken(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	if _, err := m.ValidateToken(refresh, TokenTypeAccess); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := m.ValidateToken(refresh, TokenTypeRefresh); err != nil {
		t.Errorf("refresh token rejected as refresh: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := testJWTManager(t, -time.Minute)

	token, err := m.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.ValidateToken(token, TokenTypeAccess); err == nil {
		t.Error("expired token accepted")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other, err := NewJWTManager(config.JWTConfig{
		Secret:             "ffffffffffffffffffffffffffffffff",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	if _, err := other.ValidateToken(token, TokenTypeAccess); err == nil {
		t.Error("token accepted under a different secret")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	m := testJWTManager(t, time.Minute)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.ValidateToken(token, TokenTypeAccess); err == nil {
			t.Errorf("ValidateToken(%q) accepted garbage", token)
		}
	}
}
