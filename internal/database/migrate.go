// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the full Podium schema. Every statement is idempotent so
// all four services can run it concurrently at startup; PostgreSQL
// serializes the DDL.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// enumType wraps CREATE TYPE in a duplicate-tolerant block.
func enumType(name, values string) string {
	return fmt.Sprintf(
		`DO $$ BEGIN CREATE TYPE %s AS ENUM (%s); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		name, values)
}

var migrations = []string{
	// Enumerated types
	enumType("event_type", `'tournament', 'weekly_match', 'meeting', 'other'`),
	enumType("award_tier", `'bronze', 'silver', 'gold'`),
	enumType("team_format", `'two_team', 'four_team'`),
	enumType("two_team_position", `'government', 'opposition'`),
	enumType("four_team_position",
		`'opening_government', 'opening_opposition', 'closing_government', 'closing_opposition'`),
	enumType("two_team_speaker_role",
		`'prime_minister', 'deputy_prime_minister', 'government_whip',
		 'leader_of_opposition', 'deputy_leader_of_opposition', 'opposition_whip',
		 'government_reply', 'opposition_reply'`),
	enumType("four_team_speaker_role",
		`'prime_minister', 'deputy_prime_minister', 'leader_of_opposition',
		 'deputy_leader_of_opposition', 'member_of_government', 'government_whip',
		 'member_of_opposition', 'opposition_whip'`),
	enumType("allocation_role",
		`'speaker', 'resource', 'voting_adjudicator', 'non_voting_adjudicator'`),
	enumType("match_status", `'draft', 'published', 'in_progress', 'completed', 'cancelled'`),

	// Accounts and authentication
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		salt VARCHAR(64) NOT NULL,
		reg_number VARCHAR(50) NOT NULL CONSTRAINT users_reg_number_unique UNIQUE,
		year_joined INT NOT NULL,
		phone_number VARCHAR(50) NOT NULL CONSTRAINT users_phone_number_unique UNIQUE,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		email_verified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS admin_users (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		granted_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(64) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_hash ON refresh_tokens(token_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,

	`CREATE TABLE IF NOT EXISTS csrf_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		token VARCHAR(32) UNIQUE NOT NULL,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_csrf_tokens_token ON csrf_tokens(token)`,

	// One live OTP row per user; resends update in place.
	`CREATE TABLE IF NOT EXISTS email_verification_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		otp VARCHAR(6) NOT NULL,
		attempts INT NOT NULL DEFAULT 0,
		expires_at TIMESTAMPTZ NOT NULL,
		last_sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL,
		otp VARCHAR(6) NOT NULL,
		attempts INT NOT NULL DEFAULT 0,
		expires_at TIMESTAMPTZ NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		last_sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user ON password_reset_tokens(user_id)`,

	// Events and attendance
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title VARCHAR(255) NOT NULL,
		description TEXT,
		event_type event_type NOT NULL,
		event_date TIMESTAMPTZ NOT NULL,
		location VARCHAR(255),
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type)`,

	`CREATE TABLE IF NOT EXISTS attendance (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_available BOOLEAN NOT NULL,
		is_checked_in BOOLEAN NOT NULL DEFAULT FALSE,
		checked_in_by UUID REFERENCES users(id) ON DELETE SET NULL,
		checked_in_at TIMESTAMPTZ,
		availability_set_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_event ON attendance(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id)`,

	// Merit ledger and awards
	`CREATE TABLE IF NOT EXISTS user_merits (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		merit_points INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS merit_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		admin_id UUID REFERENCES users(id) ON DELETE SET NULL,
		change_amount INT NOT NULL,
		previous_total INT NOT NULL,
		new_total INT NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_merit_history_user ON merit_history(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS awards (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		tier award_tier NOT NULL,
		awarded_by UUID REFERENCES users(id) ON DELETE SET NULL,
		awarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_awards_user ON awards(user_id)`,

	`CREATE TABLE IF NOT EXISTS award_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		award_id UUID NOT NULL REFERENCES awards(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		admin_id UUID REFERENCES users(id) ON DELETE SET NULL,
		previous_tier award_tier,
		new_tier award_tier NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_award_history_award ON award_history(award_id)`,

	// Tabulation
	`CREATE TABLE IF NOT EXISTS match_series (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		round_number INT,
		team_format team_format NOT NULL,
		allow_reply_speeches BOOLEAN NOT NULL DEFAULT FALSE,
		is_break_round BOOLEAN NOT NULL DEFAULT FALSE,
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Friendly rounds (NULL round_number) repeat freely; numbered rounds are
	// unique per event.
	`CREATE UNIQUE INDEX IF NOT EXISTS unique_event_round
		ON match_series(event_id, round_number) WHERE round_number IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_match_series_event ON match_series(event_id)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		series_id UUID NOT NULL REFERENCES match_series(id) ON DELETE CASCADE,
		room_name VARCHAR(255),
		motion TEXT,
		info_slide TEXT,
		status match_status NOT NULL DEFAULT 'draft',
		scheduled_time TIMESTAMPTZ,
		scores_released BOOLEAN NOT NULL DEFAULT FALSE,
		rankings_released BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_series ON matches(series_id)`,

	`CREATE TABLE IF NOT EXISTS match_teams (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		two_team_position two_team_position,
		four_team_position four_team_position,
		team_name VARCHAR(255),
		institution VARCHAR(255),
		final_rank INT,
		total_speaker_points NUMERIC(10,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_match_teams_match ON match_teams(match_id)`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		guest_name VARCHAR(255),
		role allocation_role NOT NULL,
		team_id UUID REFERENCES match_teams(id) ON DELETE SET NULL,
		two_team_speaker_role two_team_speaker_role,
		four_team_speaker_role four_team_speaker_role,
		is_chair BOOLEAN,
		allocated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		allocated_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		was_checked_in BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (user_id IS NOT NULL OR guest_name IS NOT NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_match ON allocations(match_id)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_user ON allocations(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_team ON allocations(team_id)`,

	`CREATE TABLE IF NOT EXISTS allocation_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		allocation_id UUID REFERENCES allocations(id) ON DELETE SET NULL,
		match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		guest_name VARCHAR(255),
		action VARCHAR(20) NOT NULL,
		previous_role allocation_role,
		new_role allocation_role,
		previous_team_id UUID,
		new_team_id UUID,
		changed_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_history_match
		ON allocation_history(match_id, changed_at DESC)`,

	`CREATE TABLE IF NOT EXISTS ballots (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		adjudicator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_voting BOOLEAN NOT NULL,
		is_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		submitted_at TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(match_id, adjudicator_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ballots_match ON ballots(match_id)`,

	`CREATE TABLE IF NOT EXISTS speaker_scores (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		ballot_id UUID NOT NULL REFERENCES ballots(id) ON DELETE CASCADE,
		allocation_id UUID NOT NULL REFERENCES allocations(id) ON DELETE CASCADE,
		score NUMERIC(5,2) NOT NULL,
		feedback TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(ballot_id, allocation_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_speaker_scores_allocation ON speaker_scores(allocation_id)`,

	`CREATE TABLE IF NOT EXISTS team_rankings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		ballot_id UUID NOT NULL REFERENCES ballots(id) ON DELETE CASCADE,
		team_id UUID NOT NULL REFERENCES match_teams(id) ON DELETE CASCADE,
		rank INT NOT NULL,
		is_winner BOOLEAN,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(ballot_id, team_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_rankings_team ON team_rankings(team_id)`,
}
