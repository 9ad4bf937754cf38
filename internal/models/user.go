// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row. Only email-verified users may log in;
// unverified rows may be overwritten by re-registration.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Salt            string     `json:"-"`
	RegNumber       string     `json:"reg_number"`
	YearJoined      int        `json:"year_joined"`
	PhoneNumber     string     `json:"phone_number"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AdminUser marks a user as an administrator. Presence grants the capability.
type AdminUser struct {
	UserID    uuid.UUID  `json:"user_id"`
	GrantedBy *uuid.UUID `json:"granted_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// RefreshToken stores the HMAC-SHA256 digest of an issued refresh token.
// The raw token is never stored.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CsrfToken is a DB-backed anti-CSRF token, optionally bound to a user.
type CsrfToken struct {
	ID        uuid.UUID  `json:"id"`
	Token     string     `json:"token"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// EmailVerificationToken is the live OTP row for a pending verification.
// At most one row exists per user.
type EmailVerificationToken struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	OTP        string    `json:"-"`
	Attempts   int       `json:"attempts"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSentAt time.Time `json:"last_sent_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PasswordResetToken is the live OTP row for a password reset flow.
type PasswordResetToken struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OTP        string    `json:"-"`
	Attempts   int       `json:"attempts"`
	ExpiresAt  time.Time `json:"expires_at"`
	Used       bool      `json:"used"`
	LastSentAt time.Time `json:"last_sent_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicUser is the profile shape visible to anonymous callers.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	YearJoined int       `json:"year_joined"`
	CreatedAt  time.Time `json:"created_at"`
}
