// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// HashToken computes the HMAC-SHA256 hex digest of a token for storage.
// Raw refresh tokens never touch the database; lookups compare digests.
func HashToken(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// otpDigits is the length of email verification and password reset codes.
const otpDigits = 6

// GenerateOTP returns a random 6-digit numeric code, zero-padded.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

// csrfTokenLen is the length of generated CSRF tokens.
const csrfTokenLen = 32

const csrfAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateCSRFToken returns a random 32-character alphanumeric token.
func GenerateCSRFToken() (string, error) {
	out := make([]byte, csrfTokenLen)
	alphabetLen := big.NewInt(int64(len(csrfAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("generating csrf token: %w", err)
		}
		out[i] = csrfAlphabet[n.Int64()]
	}
	return string(out), nil
}
