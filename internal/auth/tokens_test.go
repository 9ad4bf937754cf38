// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"testing"
)

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("tok", "secret")
	b := HashToken("tok", "secret")
	if a != b {
		t.Error("same token hashed to different digests")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if HashToken("tok", "other-secret") == a {
		t.Error("digest independent of secret")
	}
	if HashToken("tok2", "secret") == a {
		t.Error("digest independent of token")
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("OTP %q length = %d, want 6", otp, len(otp))
		}
		for _, c := range otp {
			if c < '0' || c > '9' {
				t.Fatalf("OTP %q contains non-digit", otp)
			}
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("50 OTPs were all identical")
	}
}

func TestGenerateCSRFToken(t *testing.T) {
	a, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("GenerateCSRFToken: %v", err)
	}
	if len(a) != 32 {
		t.Errorf("token length = %d, want 32", len(a))
	}
	for _, c := range a {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			t.Errorf("token %q contains non-alphanumeric %q", a, c)
		}
	}

	b, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("GenerateCSRFToken: %v", err)
	}
	if a == b {
		t.Error("two generated tokens are identical")
	}
}
