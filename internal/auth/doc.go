// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package auth holds the security primitives shared by all Podium services:
// argon2id password hashing, JWT issuance and validation, opaque token
// digests, OTP and CSRF token generation, and the HTTP middleware that
// enforces bearer-token and admin access.
package auth
