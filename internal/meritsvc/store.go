// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package meritsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

// Store wraps the shared pool with merit and award queries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database reachability for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UserProfile is a user row joined with merit total and admin flag,
// for the public profile endpoint.
type UserProfile struct {
	models.User
	MeritPoints int
	IsAdmin     bool
}

// FindProfileByUsername loads a verified user's profile. Unverified
// accounts are invisible here. Returns nil when not found.
func (s *Store) FindProfileByUsername(ctx context.Context, username string) (*UserProfile, error) {
	start := time.Now()
	var p UserProfile
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.email, u.reg_number, u.year_joined, u.phone_number,
		       u.email_verified, u.created_at, u.updated_at,
		       COALESCE(um.merit_points, 0),
		       au.user_id IS NOT NULL
		FROM users u
		LEFT JOIN user_merits um ON um.user_id = u.id
		LEFT JOIN admin_users au ON au.user_id = u.id
		WHERE u.username = $1 AND u.email_verified = TRUE`,
		username,
	).Scan(&p.ID, &p.Username, &p.Email, &p.RegNumber, &p.YearJoined, &p.PhoneNumber,
		&p.EmailVerified, &p.CreatedAt, &p.UpdatedAt, &p.MeritPoints, &p.IsAdmin)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// FindUsername resolves a user ID to its username. Returns "" when the
// user does not exist.
func (s *Store) FindUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	start := time.Now()
	var username string
	err := s.pool.QueryRow(ctx,
		`SELECT username FROM users WHERE id = $1`, userID,
	).Scan(&username)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find username: %w", err)
	}
	return username, nil
}

const meritColumns = `id, user_id, merit_points, created_at, updated_at`

func scanMerit(row pgx.Row) (*models.UserMerit, error) {
	var m models.UserMerit
	err := row.Scan(&m.ID, &m.UserID, &m.MeritPoints, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetUserMerit fetches a user's merit row, nil when none exists yet.
func (s *Store) GetUserMerit(ctx context.Context, userID uuid.UUID) (*models.UserMerit, error) {
	start := time.Now()
	m, err := scanMerit(s.pool.QueryRow(ctx,
		`SELECT `+meritColumns+` FROM user_merits WHERE user_id = $1`, userID))
	metrics.RecordDBQuery("select", "user_merits", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user merit: %w", err)
	}
	return m, nil
}

// InitializeUserMerit returns the user's merit row, creating a zero row
// on first touch. The no-op DO UPDATE makes the upsert always return.
func (s *Store) InitializeUserMerit(ctx context.Context, userID uuid.UUID) (*models.UserMerit, error) {
	start := time.Now()
	m, err := scanMerit(s.pool.QueryRow(ctx, `
		INSERT INTO user_merits (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+meritColumns,
		userID))
	metrics.RecordDBQuery("insert", "user_merits", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("initialize user merit: %w", err)
	}
	return m, nil
}

// MeritChange is the outcome of an applied merit adjustment.
type MeritChange struct {
	PreviousTotal int
	NewTotal      int
}

// UpdateMerit applies a signed merit change and appends the ledger entry
// in one transaction. The merit row is created at zero if absent and
// locked for the duration of the change.
func (s *Store) UpdateMerit(ctx context.Context, userID, adminID uuid.UUID, changeAmount int, reason string) (*MeritChange, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin merit update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `
		INSERT INTO user_merits (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return nil, fmt.Errorf("ensure merit row: %w", err)
	}

	var previous int
	if err = tx.QueryRow(ctx,
		`SELECT merit_points FROM user_merits WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&previous); err != nil {
		return nil, fmt.Errorf("lock merit row: %w", err)
	}

	newTotal := previous + changeAmount
	if _, err = tx.Exec(ctx, `
		UPDATE user_merits SET merit_points = $2, updated_at = NOW()
		WHERE user_id = $1`,
		userID, newTotal); err != nil {
		return nil, fmt.Errorf("update merit total: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO merit_history (user_id, admin_id, change_amount, previous_total, new_total, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, adminID, changeAmount, previous, newTotal, reason); err != nil {
		return nil, fmt.Errorf("record merit history: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.RecordDBQuery("update", "user_merits", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("commit merit update: %w", err)
	}
	return &MeritChange{PreviousTotal: previous, NewTotal: newTotal}, nil
}

// MeritHistory returns a user's ledger entries newest first, with the
// acting admin's username when that account still exists.
func (s *Store) MeritHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.MeritHistory, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM merit_history WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "merit_history", time.Since(start), err)
		return nil, 0, fmt.Errorf("count merit history: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT mh.id, mh.user_id, mh.admin_id, a.username,
		       mh.change_amount, mh.previous_total, mh.new_total, mh.reason, mh.created_at
		FROM merit_history mh
		LEFT JOIN users a ON a.id = mh.admin_id
		WHERE mh.user_id = $1
		ORDER BY mh.created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	metrics.RecordDBQuery("select", "merit_history", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list merit history: %w", err)
	}
	defer rows.Close()

	history := make([]models.MeritHistory, 0, limit)
	for rows.Next() {
		var h models.MeritHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.AdminID, &h.AdminUsername,
			&h.ChangeAmount, &h.PreviousTotal, &h.NewTotal, &h.Reason, &h.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan merit history: %w", err)
		}
		history = append(history, h)
	}
	return history, total, rows.Err()
}

// MeritStanding is one row of the club-wide merit table.
type MeritStanding struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	MeritPoints int       `json:"merit_points"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListAllMerits returns verified users' merit totals, highest first with
// username breaking ties. Users without a merit row are omitted.
func (s *Store) ListAllMerits(ctx context.Context, limit, offset int) ([]MeritStanding, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM user_merits um
		JOIN users u ON u.id = um.user_id
		WHERE u.email_verified = TRUE`,
	).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "user_merits", time.Since(start), err)
		return nil, 0, fmt.Errorf("count merits: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT um.user_id, u.username, um.merit_points, um.updated_at
		FROM user_merits um
		JOIN users u ON u.id = um.user_id
		WHERE u.email_verified = TRUE
		ORDER BY um.merit_points DESC, u.username ASC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	metrics.RecordDBQuery("select", "user_merits", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list merits: %w", err)
	}
	defer rows.Close()

	standings := make([]MeritStanding, 0, limit)
	for rows.Next() {
		var m MeritStanding
		if err := rows.Scan(&m.UserID, &m.Username, &m.MeritPoints, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan merit standing: %w", err)
		}
		standings = append(standings, m)
	}
	return standings, total, rows.Err()
}

const awardColumns = `id, user_id, title, description, tier, awarded_by, awarded_at, created_at, updated_at`

func scanAward(row pgx.Row) (*models.Award, error) {
	var a models.Award
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.Tier,
		&a.AwardedBy, &a.AwardedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAwardParams carries a new award grant.
type CreateAwardParams struct {
	UserID      uuid.UUID
	Title       string
	Description *string
	Tier        models.AwardTier
	AwardedBy   uuid.UUID
	Reason      string
}

// CreateAward inserts the award and its initial history entry
// (previous tier NULL) in one transaction.
func (s *Store) CreateAward(ctx context.Context, p CreateAwardParams) (*models.Award, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create award: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := scanAward(tx.QueryRow(ctx, `
		INSERT INTO awards (user_id, title, description, tier, awarded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+awardColumns,
		p.UserID, p.Title, p.Description, p.Tier, p.AwardedBy))
	if err != nil {
		metrics.RecordDBQuery("insert", "awards", time.Since(start), err)
		return nil, fmt.Errorf("create award: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO award_history (award_id, user_id, admin_id, previous_tier, new_tier, reason)
		VALUES ($1, $2, $3, NULL, $4, $5)`,
		a.ID, a.UserID, p.AwardedBy, a.Tier, p.Reason); err != nil {
		return nil, fmt.Errorf("record award history: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.RecordDBQuery("insert", "awards", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("commit create award: %w", err)
	}
	return a, nil
}

// GetAward fetches one award by ID, nil when not found.
func (s *Store) GetAward(ctx context.Context, awardID uuid.UUID) (*models.Award, error) {
	start := time.Now()
	a, err := scanAward(s.pool.QueryRow(ctx,
		`SELECT `+awardColumns+` FROM awards WHERE id = $1`, awardID))
	metrics.RecordDBQuery("select", "awards", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get award: %w", err)
	}
	return a, nil
}

// UpgradeAward moves an award to a higher tier, optionally retitling it,
// and appends the history entry. Tier ordering is enforced by the caller.
func (s *Store) UpgradeAward(ctx context.Context, awardID, adminID uuid.UUID, previousTier, newTier models.AwardTier, newTitle *string, reason string) (*models.Award, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upgrade award: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := scanAward(tx.QueryRow(ctx, `
		UPDATE awards
		SET tier = $2, title = COALESCE($3, title), updated_at = NOW()
		WHERE id = $1
		RETURNING `+awardColumns,
		awardID, newTier, newTitle))
	if err != nil {
		metrics.RecordDBQuery("update", "awards", time.Since(start), err)
		return nil, fmt.Errorf("upgrade award: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO award_history (award_id, user_id, admin_id, previous_tier, new_tier, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, adminID, previousTier, newTier, reason); err != nil {
		return nil, fmt.Errorf("record award history: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.RecordDBQuery("update", "awards", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("commit upgrade award: %w", err)
	}
	return a, nil
}

// EditAward replaces an award's title, description, and tier without a
// history entry. Returns nil when the award does not exist.
func (s *Store) EditAward(ctx context.Context, awardID uuid.UUID, title string, description *string, tier models.AwardTier) (*models.Award, error) {
	start := time.Now()
	a, err := scanAward(s.pool.QueryRow(ctx, `
		UPDATE awards
		SET title = $2, description = $3, tier = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+awardColumns,
		awardID, title, description, tier))
	metrics.RecordDBQuery("update", "awards", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("edit award: %w", err)
	}
	return a, nil
}

// DeleteAward removes an award; its history goes with it via cascade.
func (s *Store) DeleteAward(ctx context.Context, awardID uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM awards WHERE id = $1`, awardID)
	metrics.RecordDBQuery("delete", "awards", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("delete award: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUserAwards lists a user's awards, highest tier first, newest first
// within a tier.
func (s *Store) GetUserAwards(ctx context.Context, userID uuid.UUID) ([]models.Award, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT `+awardColumns+`
		FROM awards
		WHERE user_id = $1
		ORDER BY
			CASE tier WHEN 'gold' THEN 1 WHEN 'silver' THEN 2 WHEN 'bronze' THEN 3 END,
			awarded_at DESC`,
		userID)
	metrics.RecordDBQuery("select", "awards", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list user awards: %w", err)
	}
	defer rows.Close()

	awards := []models.Award{}
	for rows.Next() {
		a, err := scanAward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		awards = append(awards, *a)
	}
	return awards, rows.Err()
}

// AwardListing is an award with recipient and granting admin usernames.
type AwardListing struct {
	models.Award
	Username          string  `json:"username"`
	AwardedByUsername *string `json:"awarded_by_username,omitempty"`
}

// ListAllAwards returns every award with display names, newest grants first.
func (s *Store) ListAllAwards(ctx context.Context, limit, offset int) ([]AwardListing, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM awards`).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "awards", time.Since(start), err)
		return nil, 0, fmt.Errorf("count awards: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.user_id, u.username, a.title, a.description, a.tier,
		       a.awarded_by, g.username, a.awarded_at, a.created_at, a.updated_at
		FROM awards a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN users g ON g.id = a.awarded_by
		ORDER BY a.awarded_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	metrics.RecordDBQuery("select", "awards", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list awards: %w", err)
	}
	defer rows.Close()

	listings := make([]AwardListing, 0, limit)
	for rows.Next() {
		var l AwardListing
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Title, &l.Description, &l.Tier,
			&l.AwardedBy, &l.AwardedByUsername, &l.AwardedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan award listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

// AwardHistoryEntry is a tier change with the acting admin's username.
type AwardHistoryEntry struct {
	models.AwardHistory
	AdminUsername *string `json:"admin_username,omitempty"`
}

func (s *Store) scanAwardHistory(rows pgx.Rows) ([]AwardHistoryEntry, error) {
	defer rows.Close()
	history := []AwardHistoryEntry{}
	for rows.Next() {
		var h AwardHistoryEntry
		if err := rows.Scan(&h.ID, &h.AwardID, &h.UserID, &h.AdminID, &h.AdminUsername,
			&h.PreviousTier, &h.NewTier, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan award history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

const awardHistorySelect = `
	SELECT ah.id, ah.award_id, ah.user_id, ah.admin_id, a.username,
	       ah.previous_tier, ah.new_tier, ah.reason, ah.created_at
	FROM award_history ah
	LEFT JOIN users a ON a.id = ah.admin_id`

// GetUserAwardHistory lists every tier change across a user's awards.
func (s *Store) GetUserAwardHistory(ctx context.Context, userID uuid.UUID) ([]AwardHistoryEntry, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		awardHistorySelect+` WHERE ah.user_id = $1 ORDER BY ah.created_at DESC`, userID)
	metrics.RecordDBQuery("select", "award_history", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get user award history: %w", err)
	}
	return s.scanAwardHistory(rows)
}

// IsAdmin reports whether userID is in admin_users. Satisfies the
// middleware's AdminChecker.
func (s *Store) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	start := time.Now()
	var isAdmin bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admin_users WHERE user_id = $1)`, userID,
	).Scan(&isAdmin)
	metrics.RecordDBQuery("select", "admin_users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return isAdmin, nil
}
