// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package database

import (
	"strings"
	"testing"
)

func TestMigrationsWellFormed(t *testing.T) {
	if len(migrations) == 0 {
		t.Fatal("no migrations defined")
	}
	for i, stmt := range migrations {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			t.Errorf("migration %d is empty", i)
		}
		if strings.HasSuffix(trimmed, ";") {
			t.Errorf("migration %d ends with a semicolon, pgx Exec takes single statements", i)
		}
	}
}

func TestUsersTableUniqueConstraints(t *testing.T) {
	var usersDDL string
	for _, stmt := range migrations {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS users (") {
			usersDDL = stmt
			break
		}
	}
	if usersDDL == "" {
		t.Fatal("users table DDL not found")
	}

	// Registration uniqueness must hold at the database layer; the
	// handler pre-checks race under concurrent signups.
	for _, constraint := range []string{
		"users_reg_number_unique",
		"users_phone_number_unique",
	} {
		if !strings.Contains(usersDDL, constraint) {
			t.Errorf("users DDL missing constraint %s", constraint)
		}
	}
}

func TestMigrationsIdempotentDDL(t *testing.T) {
	for i, stmt := range migrations {
		trimmed := strings.TrimSpace(stmt)
		switch {
		case strings.HasPrefix(trimmed, "DO $$"):
			if !strings.Contains(trimmed, "duplicate_object") {
				t.Errorf("migration %d: enum creation without duplicate guard", i)
			}
		case strings.HasPrefix(trimmed, "CREATE TABLE"):
			if !strings.HasPrefix(trimmed, "CREATE TABLE IF NOT EXISTS") {
				t.Errorf("migration %d: CREATE TABLE without IF NOT EXISTS", i)
			}
		case strings.HasPrefix(trimmed, "CREATE INDEX"), strings.HasPrefix(trimmed, "CREATE UNIQUE INDEX"):
			if !strings.Contains(trimmed, "IF NOT EXISTS") {
				t.Errorf("migration %d: index creation without IF NOT EXISTS", i)
			}
		default:
			t.Errorf("migration %d: unexpected statement kind: %.40s", i, trimmed)
		}
	}
}

func TestEnumTypeGuard(t *testing.T) {
	stmt := enumType("sample_type", `'a', 'b'`)
	if !strings.Contains(stmt, "CREATE TYPE sample_type AS ENUM ('a', 'b')") {
		t.Errorf("enumType output = %q", stmt)
	}
	if !strings.Contains(stmt, "duplicate_object") {
		t.Error("enumType missing duplicate_object guard")
	}
}
