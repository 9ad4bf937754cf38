// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

const allocationColumns = `id, match_id, user_id, guest_name, role, team_id,
	two_team_speaker_role, four_team_speaker_role, is_chair, allocated_at,
	allocated_by, was_checked_in, created_at, updated_at`

func scanAllocation(row pgx.Row) (*models.Allocation, error) {
	var a models.Allocation
	err := row.Scan(&a.ID, &a.MatchID, &a.UserID, &a.GuestName, &a.Role, &a.TeamID,
		&a.TwoTeamSpeakerRole, &a.FourTeamSpeakerRole, &a.IsChair, &a.AllocatedAt,
		&a.AllocatedBy, &a.WasCheckedIn, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAllocationParams carries a new allocation. Exactly one of UserID
// and GuestName is set; the handler validates this.
type CreateAllocationParams struct {
	MatchID             uuid.UUID
	UserID              *uuid.UUID
	GuestName           *string
	Role                models.AllocationRole
	TeamID              *uuid.UUID
	TwoTeamSpeakerRole  *models.TwoTeamSpeakerRole
	FourTeamSpeakerRole *models.FourTeamSpeakerRole
	IsChair             bool
	AllocatedBy         uuid.UUID
	WasCheckedIn        bool
}

func (s *Store) CreateAllocation(ctx context.Context, p CreateAllocationParams) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx, `
		INSERT INTO allocations (match_id, user_id, guest_name, role, team_id,
			two_team_speaker_role, four_team_speaker_role, is_chair, allocated_by, was_checked_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+allocationColumns,
		p.MatchID, p.UserID, p.GuestName, p.Role, p.TeamID,
		p.TwoTeamSpeakerRole, p.FourTeamSpeakerRole, p.IsChair, p.AllocatedBy, p.WasCheckedIn))
	metrics.RecordDBQuery("insert", "allocations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}
	return a, nil
}

// GetAllocation fetches one allocation, nil when not found.
func (s *Store) GetAllocation(ctx context.Context, allocationID uuid.UUID) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = $1`, allocationID))
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return a, nil
}

// GetUserAllocation returns any of the user's allocations in a match,
// nil when none.
func (s *Store) GetUserAllocation(ctx context.Context, matchID, userID uuid.UUID) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE match_id = $1 AND user_id = $2 LIMIT 1`,
		matchID, userID))
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user allocation: %w", err)
	}
	return a, nil
}

// GetAdjudicatorAllocation returns the user's adjudicator allocation in
// a match, nil when they are not on the panel.
func (s *Store) GetAdjudicatorAllocation(ctx context.Context, matchID, userID uuid.UUID) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx, `
		SELECT `+allocationColumns+` FROM allocations
		WHERE match_id = $1 AND user_id = $2
		  AND role IN ('voting_adjudicator', 'non_voting_adjudicator')
		LIMIT 1`,
		matchID, userID))
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get adjudicator allocation: %w", err)
	}
	return a, nil
}

func (s *Store) scanAllocationsWithUser(rows pgx.Rows) ([]models.AllocationWithUser, error) {
	defer rows.Close()
	allocs := []models.AllocationWithUser{}
	for rows.Next() {
		var a models.AllocationWithUser
		if err := rows.Scan(&a.ID, &a.MatchID, &a.UserID, &a.GuestName, &a.Role, &a.TeamID,
			&a.TwoTeamSpeakerRole, &a.FourTeamSpeakerRole, &a.IsChair, &a.AllocatedAt,
			&a.AllocatedBy, &a.WasCheckedIn, &a.CreatedAt, &a.UpdatedAt, &a.Username); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

const allocationWithUserSelect = `
	SELECT a.id, a.match_id, a.user_id, a.guest_name, a.role, a.team_id,
	       a.two_team_speaker_role, a.four_team_speaker_role, a.is_chair, a.allocated_at,
	       a.allocated_by, a.was_checked_in, a.created_at, a.updated_at,
	       COALESCE(u.username, a.guest_name, 'Unknown')
	FROM allocations a
	LEFT JOIN users u ON u.id = a.user_id`

// ListAllocationsByMatch returns every allocation of a match with its
// display name.
func (s *Store) ListAllocationsByMatch(ctx context.Context, matchID uuid.UUID) ([]models.AllocationWithUser, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		allocationWithUserSelect+` WHERE a.match_id = $1 ORDER BY a.role, a.team_id, a.created_at`,
		matchID)
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list match allocations: %w", err)
	}
	return s.scanAllocationsWithUser(rows)
}

// ListAllocationsByTeam returns a team's allocations in speaking order.
func (s *Store) ListAllocationsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AllocationWithUser, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		allocationWithUserSelect+` WHERE a.team_id = $1 ORDER BY a.two_team_speaker_role, a.four_team_speaker_role`,
		teamID)
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list team allocations: %w", err)
	}
	return s.scanAllocationsWithUser(rows)
}

// UserAllocationInSeries returns the user's allocation anywhere in a
// series, nil when unallocated. Used by the pool view.
func (s *Store) UserAllocationInSeries(ctx context.Context, seriesID, userID uuid.UUID) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx, `
		SELECT a.id, a.match_id, a.user_id, a.guest_name, a.role, a.team_id,
		       a.two_team_speaker_role, a.four_team_speaker_role, a.is_chair, a.allocated_at,
		       a.allocated_by, a.was_checked_in, a.created_at, a.updated_at
		FROM allocations a
		JOIN matches m ON m.id = a.match_id
		WHERE m.series_id = $1 AND a.user_id = $2
		LIMIT 1`,
		seriesID, userID))
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series allocation: %w", err)
	}
	return a, nil
}

// UpdateAllocationParams patches an allocation; nil fields keep their
// value. AllocatedBy always moves to the acting admin.
type UpdateAllocationParams struct {
	Role                *models.AllocationRole
	TeamID              *uuid.UUID
	TwoTeamSpeakerRole  *models.TwoTeamSpeakerRole
	FourTeamSpeakerRole *models.FourTeamSpeakerRole
	IsChair             *bool
	AllocatedBy         uuid.UUID
}

func (s *Store) UpdateAllocation(ctx context.Context, allocationID uuid.UUID, p UpdateAllocationParams) (*models.Allocation, error) {
	start := time.Now()
	a, err := scanAllocation(s.pool.QueryRow(ctx, `
		UPDATE allocations
		SET role = COALESCE($2, role),
		    team_id = COALESCE($3, team_id),
		    two_team_speaker_role = COALESCE($4, two_team_speaker_role),
		    four_team_speaker_role = COALESCE($5, four_team_speaker_role),
		    is_chair = COALESCE($6, is_chair),
		    allocated_by = $7,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+allocationColumns,
		allocationID, p.Role, p.TeamID, p.TwoTeamSpeakerRole, p.FourTeamSpeakerRole,
		p.IsChair, p.AllocatedBy))
	metrics.RecordDBQuery("update", "allocations", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update allocation: %w", err)
	}
	return a, nil
}

// swapHistory builds the mutual audit entries for a swap: each side
// records its own previous role/team and the other's as the new values.
func swapHistory(first, second *models.Allocation, changedBy uuid.UUID) []AllocationChange {
	changes := make([]AllocationChange, 0, 2)
	for _, pair := range []struct {
		own, other *models.Allocation
	}{
		{first, second},
		{second, first},
	} {
		notes := fmt.Sprintf("Swapped with allocation %s", pair.other.ID)
		changes = append(changes, AllocationChange{
			AllocationID:   &pair.own.ID,
			MatchID:        pair.own.MatchID,
			UserID:         pair.own.UserID,
			GuestName:      pair.own.GuestName,
			Action:         "swapped",
			PreviousRole:   &pair.own.Role,
			NewRole:        &pair.other.Role,
			PreviousTeamID: pair.own.TeamID,
			NewTeamID:      pair.other.TeamID,
			ChangedBy:      changedBy,
			Notes:          &notes,
		})
	}
	return changes
}

// SwapAllocations exchanges the role, team, speaker roles, and chair
// flag of two allocations and appends both audit entries, all in one
// transaction.
func (s *Store) SwapAllocations(ctx context.Context, first, second *models.Allocation, changedBy uuid.UUID) error {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback(ctx)

	const swapQuery = `
		UPDATE allocations
		SET role = $2, team_id = $3, two_team_speaker_role = $4,
		    four_team_speaker_role = $5, is_chair = $6, updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, swapQuery, first.ID,
		second.Role, second.TeamID, second.TwoTeamSpeakerRole, second.FourTeamSpeakerRole, second.IsChair); err != nil {
		metrics.RecordDBQuery("update", "allocations", time.Since(start), err)
		return fmt.Errorf("swap first allocation: %w", err)
	}
	if _, err := tx.Exec(ctx, swapQuery, second.ID,
		first.Role, first.TeamID, first.TwoTeamSpeakerRole, first.FourTeamSpeakerRole, first.IsChair); err != nil {
		metrics.RecordDBQuery("update", "allocations", time.Since(start), err)
		return fmt.Errorf("swap second allocation: %w", err)
	}

	for _, c := range swapHistory(first, second, changedBy) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO allocation_history (allocation_id, match_id, user_id, guest_name, action,
				previous_role, new_role, previous_team_id, new_team_id, changed_by, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.AllocationID, c.MatchID, c.UserID, c.GuestName, c.Action,
			c.PreviousRole, c.NewRole, c.PreviousTeamID, c.NewTeamID, c.ChangedBy, c.Notes); err != nil {
			metrics.RecordDBQuery("insert", "allocation_history", time.Since(start), err)
			return fmt.Errorf("record swap history: %w", err)
		}
	}

	err = tx.Commit(ctx)
	metrics.RecordDBQuery("update", "allocations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}

// DeleteAllocation removes an allocation; history rows keep a NULL
// reference via ON DELETE SET NULL.
func (s *Store) DeleteAllocation(ctx context.Context, allocationID uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM allocations WHERE id = $1`, allocationID)
	metrics.RecordDBQuery("delete", "allocations", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("delete allocation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AllocationChange is one entry for the allocation audit log.
type AllocationChange struct {
	AllocationID   *uuid.UUID
	MatchID        uuid.UUID
	UserID         *uuid.UUID
	GuestName      *string
	Action         string
	PreviousRole   *models.AllocationRole
	NewRole        *models.AllocationRole
	PreviousTeamID *uuid.UUID
	NewTeamID      *uuid.UUID
	ChangedBy      uuid.UUID
	Notes          *string
}

// RecordAllocationChange appends to the allocation audit log. Failures
// are the caller's to log; the log is best-effort.
func (s *Store) RecordAllocationChange(ctx context.Context, c AllocationChange) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO allocation_history (allocation_id, match_id, user_id, guest_name, action,
			previous_role, new_role, previous_team_id, new_team_id, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.AllocationID, c.MatchID, c.UserID, c.GuestName, c.Action,
		c.PreviousRole, c.NewRole, c.PreviousTeamID, c.NewTeamID, c.ChangedBy, c.Notes)
	metrics.RecordDBQuery("insert", "allocation_history", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("record allocation change: %w", err)
	}
	return nil
}

// ListAllocationHistory returns a match's audit log, newest first.
func (s *Store) ListAllocationHistory(ctx context.Context, matchID uuid.UUID, limit, offset int) ([]models.AllocationHistory, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM allocation_history WHERE match_id = $1`, matchID,
	).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "allocation_history", time.Since(start), err)
		return nil, 0, fmt.Errorf("count allocation history: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, allocation_id, match_id, user_id, guest_name, action,
		       previous_role, new_role, previous_team_id, new_team_id, changed_by, changed_at, notes
		FROM allocation_history
		WHERE match_id = $1
		ORDER BY changed_at DESC
		LIMIT $2 OFFSET $3`,
		matchID, limit, offset)
	metrics.RecordDBQuery("select", "allocation_history", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list allocation history: %w", err)
	}
	defer rows.Close()

	history := make([]models.AllocationHistory, 0, limit)
	for rows.Next() {
		var h models.AllocationHistory
		if err := rows.Scan(&h.ID, &h.AllocationID, &h.MatchID, &h.UserID, &h.GuestName, &h.Action,
			&h.PreviousRole, &h.NewRole, &h.PreviousTeamID, &h.NewTeamID, &h.ChangedBy, &h.ChangedAt, &h.Notes); err != nil {
			return nil, 0, fmt.Errorf("scan allocation history: %w", err)
		}
		history = append(history, h)
	}
	return history, total, rows.Err()
}
