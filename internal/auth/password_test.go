// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"strings"
	"testing"
)

func init() {
	// Lower argon2id cost for fast tests.
	argonMemory = 8 * 1024
	argonTime = 1
}

func TestHashAndVerifyPassword(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}

	encoded, err := HashPassword("hunter22", salt, "pepper")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("encoded = %q, want argon2id PHC format", encoded)
	}

	ok, err := VerifyPassword(encoded, "hunter22", "pepper")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword(encoded, "hunter23", "pepper")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordPepperMatters(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	encoded, err := HashPassword("hunter22", salt, "pepper-a")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword(encoded, "hunter22", "pepper-b")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("hash verified under a different pepper")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	saltA, _ := GenerateSalt()
	saltB, _ := GenerateSalt()
	if saltA == saltB {
		t.Fatal("GenerateSalt returned identical salts")
	}

	hashA, err := HashPassword("same", saltA, "")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	hashB, err := HashPassword("same", saltB, "")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashA == hashB {
		t.Error("same password with different salts produced identical hashes")
	}
}

func TestVerifyPasswordRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{"", "plaintext", "$bcrypt$whatever", "$argon2id$v=19$bad"} {
		if _, err := VerifyPassword(encoded, "pw", ""); err == nil {
			t.Errorf("VerifyPassword(%q) accepted malformed hash", encoded)
		}
	}
}
