// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package authsvc implements the authentication service: registration with
// email OTP verification, login, refresh-token rotation, CSRF tokens, and
// admin management over the shared users tables.
package authsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

// Store runs the auth service's queries against the shared pool. It
// implements auth.AdminChecker and auth.CSRFValidator for the middleware.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps the connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database reachability for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, username, email, password_hash, salt, reg_number,
	year_joined, phone_number, email_verified, email_verified_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Salt,
		&u.RegNumber, &u.YearJoined, &u.PhoneNumber, &u.EmailVerified,
		&u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserParams carries everything needed to insert a user row.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	RegNumber    string
	YearJoined   int
	PhoneNumber  string
}

// CreateUser inserts a new unverified user.
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (*models.User, error) {
	start := time.Now()
	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, salt, reg_number, year_joined, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		p.Username, p.Email, p.PasswordHash, p.Salt, p.RegNumber, p.YearJoined, p.PhoneNumber))
	metrics.RecordDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// FindUserByUsername returns the user or nil when absent.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, `username = $1`, username)
}

// FindUserByEmail returns the user or nil when absent.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `email = $1`, email)
}

// FindUserByPhone returns the user or nil when absent.
func (s *Store) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findUser(ctx, `phone_number = $1`, phone)
}

// FindUserByRegNumber returns the user or nil when absent.
func (s *Store) FindUserByRegNumber(ctx context.Context, regNumber string) (*models.User, error) {
	return s.findUser(ctx, `reg_number = $1`, regNumber)
}

// FindUserByID returns the user or nil when absent.
func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, `id = $1`, id)
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	start := time.Now()
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg))
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user row. Dependent rows cascade.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	metrics.RecordDBQuery("delete", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// UpdateUserPassword replaces the password hash and salt.
func (s *Store) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash, salt string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, salt = $2, updated_at = NOW()
		WHERE id = $3`,
		passwordHash, salt, userID)
	metrics.RecordDBQuery("update", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// StoreRefreshToken records the digest of an issued refresh token.
func (s *Store) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt)
	metrics.RecordDBQuery("insert", "refresh_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns the unexpired token row for a digest, or nil.
func (s *Store) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	start := time.Now()
	var t models.RefreshToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()`,
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	metrics.RecordDBQuery("select", "refresh_tokens", time.Since(start), err)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding refresh token: %w", err)
	}
	return &t, nil
}

// DeleteRefreshToken removes a single token by digest.
func (s *Store) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	metrics.RecordDBQuery("delete", "refresh_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	return nil
}

// DeleteUserRefreshTokens logs the user out of every session.
func (s *Store) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	metrics.RecordDBQuery("delete", "refresh_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deleting user refresh tokens: %w", err)
	}
	return nil
}

// CreateCSRFToken stores a token, optionally bound to a user.
func (s *Store) CreateCSRFToken(ctx context.Context, token string, userID *uuid.UUID, ttl time.Duration) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO csrf_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		token, userID, time.Now().Add(ttl))
	metrics.RecordDBQuery("insert", "csrf_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("creating csrf token: %w", err)
	}
	return nil
}

// ValidateCSRFToken reports whether the token exists and is unexpired.
// Satisfies auth.CSRFValidator.
func (s *Store) ValidateCSRFToken(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM csrf_tokens WHERE token = $1 AND expires_at > NOW()
		)`, token).Scan(&exists)
	metrics.RecordDBQuery("select", "csrf_tokens", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("validating csrf token: %w", err)
	}
	return exists, nil
}

// CreateEmailVerificationOTP replaces any live OTP row for the user with a
// fresh one. Resends reset the attempt counter.
func (s *Store) CreateEmailVerificationOTP(ctx context.Context, userID uuid.UUID, otp string, ttl time.Duration) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_verification_tokens (user_id, otp, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET otp = EXCLUDED.otp, attempts = 0,
		    expires_at = EXCLUDED.expires_at, last_sent_at = NOW()`,
		userID, otp, time.Now().Add(ttl))
	metrics.RecordDBQuery("upsert", "email_verification_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("creating verification otp: %w", err)
	}
	return nil
}

// FindEmailVerificationOTP returns the user's live OTP row, or nil when no
// unexpired row exists.
func (s *Store) FindEmailVerificationOTP(ctx context.Context, userID uuid.UUID) (*models.EmailVerificationToken, error) {
	start := time.Now()
	var t models.EmailVerificationToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, otp, attempts, expires_at, last_sent_at, created_at
		FROM email_verification_tokens
		WHERE user_id = $1 AND expires_at > NOW()`,
		userID).Scan(&t.ID, &t.UserID, &t.OTP, &t.Attempts, &t.ExpiresAt, &t.LastSentAt, &t.CreatedAt)
	metrics.RecordDBQuery("select", "email_verification_tokens", time.Since(start), err)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding verification otp: %w", err)
	}
	return &t, nil
}

// VerifyEmailOTP checks the submitted code against the user's live row.
// On success the user is marked verified and the row deleted; on a wrong
// code the attempt counter is bumped. maxAttempts bounds guessing.
func (s *Store) VerifyEmailOTP(ctx context.Context, userID uuid.UUID, otp string, maxAttempts int) error {
	token, err := s.FindEmailVerificationOTP(ctx, userID)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrOTPInvalid
	}
	if token.Attempts >= maxAttempts {
		return ErrOTPTooManyAttempts
	}
	if token.OTP != otp {
		start := time.Now()
		_, err := s.pool.Exec(ctx, `
			UPDATE email_verification_tokens SET attempts = attempts + 1
			WHERE user_id = $1`, userID)
		metrics.RecordDBQuery("update", "email_verification_tokens", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("recording failed otp attempt: %w", err)
		}
		return ErrOTPInvalid
	}

	start := time.Now()
	_, err = s.pool.Exec(ctx, `
		UPDATE users SET email_verified = TRUE, email_verified_at = NOW(), updated_at = NOW()
		WHERE id = $1`, userID)
	metrics.RecordDBQuery("update", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("marking email verified: %w", err)
	}

	start = time.Now()
	_, err = s.pool.Exec(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = $1`, userID)
	metrics.RecordDBQuery("delete", "email_verification_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deleting used otp: %w", err)
	}
	return nil
}

// CreatePasswordResetOTP replaces any live reset row for the email.
func (s *Store) CreatePasswordResetOTP(ctx context.Context, userID uuid.UUID, email, otp string, ttl time.Duration) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE email = $1`, email)
	metrics.RecordDBQuery("delete", "password_reset_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("clearing old reset otp: %w", err)
	}

	start = time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (user_id, email, otp, expires_at)
		VALUES ($1, $2, $3, $4)`,
		userID, email, otp, time.Now().Add(ttl))
	metrics.RecordDBQuery("insert", "password_reset_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("creating reset otp: %w", err)
	}
	return nil
}

// FindPasswordResetByEmail returns the live, unused reset row, or nil.
func (s *Store) FindPasswordResetByEmail(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	start := time.Now()
	var t models.PasswordResetToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, email, otp, attempts, expires_at, used, last_sent_at, created_at
		FROM password_reset_tokens
		WHERE email = $1 AND expires_at > NOW() AND used = FALSE`,
		email).Scan(&t.ID, &t.UserID, &t.Email, &t.OTP, &t.Attempts, &t.ExpiresAt,
		&t.Used, &t.LastSentAt, &t.CreatedAt)
	metrics.RecordDBQuery("select", "password_reset_tokens", time.Since(start), err)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding reset otp: %w", err)
	}
	return &t, nil
}

// IncrementPasswordResetAttempts bumps the counter and returns the new value.
func (s *Store) IncrementPasswordResetAttempts(ctx context.Context, email string) (int, error) {
	start := time.Now()
	var attempts int
	err := s.pool.QueryRow(ctx, `
		UPDATE password_reset_tokens SET attempts = attempts + 1
		WHERE email = $1
		RETURNING attempts`, email).Scan(&attempts)
	metrics.RecordDBQuery("update", "password_reset_tokens", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("recording failed reset attempt: %w", err)
	}
	return attempts, nil
}

// MarkPasswordResetUsed burns the reset row after a successful reset.
func (s *Store) MarkPasswordResetUsed(ctx context.Context, email string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx,
		`UPDATE password_reset_tokens SET used = TRUE WHERE email = $1`, email)
	metrics.RecordDBQuery("update", "password_reset_tokens", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("marking reset otp used: %w", err)
	}
	return nil
}

// IsAdmin reports whether the user appears in admin_users.
// Satisfies auth.AdminChecker.
func (s *Store) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	start := time.Now()
	var isAdmin bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`,
		userID).Scan(&isAdmin)
	metrics.RecordDBQuery("select", "admin_users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("checking admin: %w", err)
	}
	return isAdmin, nil
}

// PromoteUser grants the admin capability. Idempotent.
func (s *Store) PromoteUser(ctx context.Context, userID, grantedBy uuid.UUID) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_users (user_id, granted_by)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, grantedBy)
	metrics.RecordDBQuery("insert", "admin_users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("promoting user: %w", err)
	}
	return nil
}

// DemoteUser revokes the admin capability. Returns false when the user was
// not an admin.
func (s *Store) DemoteUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM admin_users WHERE user_id = $1`, userID)
	metrics.RecordDBQuery("delete", "admin_users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("demoting user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UserListEntry is a user row joined with its admin flag for the admin
// user list.
type UserListEntry struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	RegNumber     string    `json:"reg_number"`
	YearJoined    int       `json:"year_joined"`
	PhoneNumber   string    `json:"phone_number"`
	EmailVerified bool      `json:"email_verified"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListUsers returns a page of users ordered by creation time, newest first,
// with the total row count.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]UserListEntry, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	start = time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.reg_number, u.year_joined,
		       u.phone_number, u.email_verified,
		       a.user_id IS NOT NULL AS is_admin, u.created_at
		FROM users u
		LEFT JOIN admin_users a ON a.user_id = u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]UserListEntry, 0, limit)
	for rows.Next() {
		var e UserListEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Email, &e.RegNumber, &e.YearJoined,
			&e.PhoneNumber, &e.EmailVerified, &e.IsAdmin, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading user rows: %w", err)
	}
	return users, total, nil
}

// CleanupExpired purges expired refresh, CSRF, verification, and reset
// tokens. Run periodically from main.
func (s *Store) CleanupExpired(ctx context.Context) error {
	for _, table := range []string{
		"refresh_tokens", "csrf_tokens",
		"email_verification_tokens", "password_reset_tokens",
	} {
		start := time.Now()
		_, err := s.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE expires_at < NOW()`)
		metrics.RecordDBQuery("delete", table, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("cleaning up %s: %w", table, err)
		}
	}
	return nil
}
