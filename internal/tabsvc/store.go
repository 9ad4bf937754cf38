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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/podium/internal/database/query"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

// Store wraps the shared pool with the tabulation queries. It reads the
// auth and attendance services' tables directly for user, event, and
// check-in lookups.
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

// FindUsername resolves a user ID to its username, "" when absent.
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

// EventExists reports whether an event row exists.
func (s *Store) EventExists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	start := time.Now()
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}

const seriesColumns = `id, event_id, name, description, round_number, team_format,
	allow_reply_speeches, is_break_round, created_by, created_at, updated_at`

func scanSeries(row pgx.Row) (*models.MatchSeries, error) {
	var ms models.MatchSeries
	err := row.Scan(&ms.ID, &ms.EventID, &ms.Name, &ms.Description, &ms.RoundNumber,
		&ms.TeamFormat, &ms.AllowReplySpeeches, &ms.IsBreakRound, &ms.CreatedBy,
		&ms.CreatedAt, &ms.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

// CreateSeriesParams carries a new series row.
type CreateSeriesParams struct {
	EventID            uuid.UUID
	Name               string
	Description        *string
	RoundNumber        *int
	TeamFormat         models.TeamFormat
	AllowReplySpeeches bool
	IsBreakRound       bool
	CreatedBy          uuid.UUID
}

// CreateSeries inserts a series. A duplicate round number for the event
// surfaces as a unique violation on unique_event_round.
func (s *Store) CreateSeries(ctx context.Context, p CreateSeriesParams) (*models.MatchSeries, error) {
	start := time.Now()
	ms, err := scanSeries(s.pool.QueryRow(ctx, `
		INSERT INTO match_series (event_id, name, description, round_number, team_format,
			allow_reply_speeches, is_break_round, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+seriesColumns,
		p.EventID, p.Name, p.Description, p.RoundNumber, p.TeamFormat,
		p.AllowReplySpeeches, p.IsBreakRound, p.CreatedBy))
	metrics.RecordDBQuery("insert", "match_series", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}
	return ms, nil
}

// GetSeries fetches one series, nil when not found.
func (s *Store) GetSeries(ctx context.Context, seriesID uuid.UUID) (*models.MatchSeries, error) {
	start := time.Now()
	ms, err := scanSeries(s.pool.QueryRow(ctx,
		`SELECT `+seriesColumns+` FROM match_series WHERE id = $1`, seriesID))
	metrics.RecordDBQuery("select", "match_series", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return ms, nil
}

// SeriesWithCount is a series and how many matches it holds.
type SeriesWithCount struct {
	models.MatchSeries
	MatchCount int64 `json:"match_count"`
}

// ListSeriesByEvent returns an event's series in round order with their
// match counts.
func (s *Store) ListSeriesByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]SeriesWithCount, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM match_series WHERE event_id = $1`, eventID,
	).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "match_series", time.Since(start), err)
		return nil, 0, fmt.Errorf("count series: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ms.id, ms.event_id, ms.name, ms.description, ms.round_number, ms.team_format,
		       ms.allow_reply_speeches, ms.is_break_round, ms.created_by, ms.created_at, ms.updated_at,
		       COUNT(m.id)
		FROM match_series ms
		LEFT JOIN matches m ON m.series_id = ms.id
		WHERE ms.event_id = $1
		GROUP BY ms.id
		ORDER BY ms.round_number ASC
		LIMIT $2 OFFSET $3`,
		eventID, limit, offset)
	metrics.RecordDBQuery("select", "match_series", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	series := make([]SeriesWithCount, 0, limit)
	for rows.Next() {
		var sc SeriesWithCount
		if err := rows.Scan(&sc.ID, &sc.EventID, &sc.Name, &sc.Description, &sc.RoundNumber,
			&sc.TeamFormat, &sc.AllowReplySpeeches, &sc.IsBreakRound, &sc.CreatedBy,
			&sc.CreatedAt, &sc.UpdatedAt, &sc.MatchCount); err != nil {
			return nil, 0, fmt.Errorf("scan series: %w", err)
		}
		series = append(series, sc)
	}
	return series, total, rows.Err()
}

// SeriesMatchCount counts the matches in a series.
func (s *Store) SeriesMatchCount(ctx context.Context, seriesID uuid.UUID) (int64, error) {
	start := time.Now()
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM matches WHERE series_id = $1`, seriesID,
	).Scan(&count)
	metrics.RecordDBQuery("select", "matches", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

// UpdateSeries patches a series; nil fields keep their current value.
// TeamFormat and RoundNumber are immutable after creation.
func (s *Store) UpdateSeries(ctx context.Context, seriesID uuid.UUID, name, description *string, allowReply, isBreak *bool) (*models.MatchSeries, error) {
	start := time.Now()
	ms, err := scanSeries(s.pool.QueryRow(ctx, `
		UPDATE match_series
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    allow_reply_speeches = COALESCE($4, allow_reply_speeches),
		    is_break_round = COALESCE($5, is_break_round),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+seriesColumns,
		seriesID, name, description, allowReply, isBreak))
	metrics.RecordDBQuery("update", "match_series", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update series: %w", err)
	}
	return ms, nil
}

// DeleteSeries removes a series and, via cascade, its matches.
func (s *Store) DeleteSeries(ctx context.Context, seriesID uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM match_series WHERE id = $1`, seriesID)
	metrics.RecordDBQuery("delete", "match_series", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("delete series: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const matchColumns = `id, series_id, room_name, motion, info_slide, status,
	scheduled_time, scores_released, rankings_released, created_at, updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(&m.ID, &m.SeriesID, &m.RoomName, &m.Motion, &m.InfoSlide, &m.Status,
		&m.ScheduledTime, &m.ScoresReleased, &m.RankingsReleased, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMatchParams carries a new match row. Matches start as drafts
// with nothing released.
type CreateMatchParams struct {
	SeriesID      uuid.UUID
	RoomName      *string
	Motion        *string
	InfoSlide     *string
	ScheduledTime *time.Time
}

func (s *Store) CreateMatch(ctx context.Context, p CreateMatchParams) (*models.Match, error) {
	start := time.Now()
	m, err := scanMatch(s.pool.QueryRow(ctx, `
		INSERT INTO matches (series_id, room_name, motion, info_slide, scheduled_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+matchColumns,
		p.SeriesID, p.RoomName, p.Motion, p.InfoSlide, p.ScheduledTime))
	metrics.RecordDBQuery("insert", "matches", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return m, nil
}

// GetMatch fetches one match, nil when not found.
func (s *Store) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	start := time.Now()
	m, err := scanMatch(s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID))
	metrics.RecordDBQuery("select", "matches", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

func (s *Store) scanMatches(rows pgx.Rows, limit int) ([]models.Match, error) {
	defer rows.Close()
	matches := make([]models.Match, 0, limit)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// ListMatchesBySeries returns a series' matches ordered by room.
func (s *Store) ListMatchesBySeries(ctx context.Context, seriesID uuid.UUID, limit, offset int) ([]models.Match, int64, error) {
	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM matches WHERE series_id = $1`, seriesID,
	).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "matches", time.Since(start), err)
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE series_id = $1
		ORDER BY room_name ASC, created_at ASC
		LIMIT $2 OFFSET $3`,
		seriesID, limit, offset)
	metrics.RecordDBQuery("select", "matches", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	matches, err := s.scanMatches(rows, limit)
	return matches, total, err
}

// ListMatchesByEvent returns matches across an event's series, in round
// then room order, optionally filtered by status.
func (s *Store) ListMatchesByEvent(ctx context.Context, eventID uuid.UUID, status *models.MatchStatus, limit, offset int) ([]models.Match, int64, error) {
	wb := query.NewWhereBuilder()
	wb.Add("ms.event_id = ?", eventID)
	wb.AddIf(status != nil, "m.status = ?", status)
	where, args := wb.Build()

	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches m
		JOIN match_series ms ON ms.id = m.series_id
		`+where, args...).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("select", "matches", time.Since(start), err)
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	listQuery, args := query.Paginate(`
		SELECT m.id, m.series_id, m.room_name, m.motion, m.info_slide, m.status,
		       m.scheduled_time, m.scores_released, m.rankings_released, m.created_at, m.updated_at
		FROM matches m
		JOIN match_series ms ON ms.id = m.series_id
		`+where+`
		ORDER BY ms.round_number ASC, m.room_name ASC`, args, limit, offset)
	rows, err := s.pool.Query(ctx, listQuery, args...)
	metrics.RecordDBQuery("select", "matches", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	matches, err := s.scanMatches(rows, limit)
	return matches, total, err
}

// UpdateMatchParams patches a match; nil fields keep their value.
type UpdateMatchParams struct {
	RoomName      *string
	Motion        *string
	InfoSlide     *string
	Status        *models.MatchStatus
	ScheduledTime *time.Time
}

func (s *Store) UpdateMatch(ctx context.Context, matchID uuid.UUID, p UpdateMatchParams) (*models.Match, error) {
	start := time.Now()
	m, err := scanMatch(s.pool.QueryRow(ctx, `
		UPDATE matches
		SET room_name = COALESCE($2, room_name),
		    motion = COALESCE($3, motion),
		    info_slide = COALESCE($4, info_slide),
		    status = COALESCE($5, status),
		    scheduled_time = COALESCE($6, scheduled_time),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+matchColumns,
		matchID, p.RoomName, p.Motion, p.InfoSlide, p.Status, p.ScheduledTime))
	metrics.RecordDBQuery("update", "matches", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}
	return m, nil
}

// UpdateMatchRelease flips the release toggles; nil fields keep their
// value. Callers enforce that releasing scores releases rankings too.
func (s *Store) UpdateMatchRelease(ctx context.Context, matchID uuid.UUID, scores, rankings *bool) (*models.Match, error) {
	start := time.Now()
	m, err := scanMatch(s.pool.QueryRow(ctx, `
		UPDATE matches
		SET scores_released = COALESCE($2, scores_released),
		    rankings_released = COALESCE($3, rankings_released),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+matchColumns,
		matchID, scores, rankings))
	metrics.RecordDBQuery("update", "matches", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update match release: %w", err)
	}
	return m, nil
}

// DeleteMatch removes a match and everything hanging off it.
func (s *Store) DeleteMatch(ctx context.Context, matchID uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, matchID)
	metrics.RecordDBQuery("delete", "matches", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const teamColumns = `id, match_id, two_team_position, four_team_position, team_name,
	institution, final_rank, total_speaker_points, created_at, updated_at`

func scanTeam(row pgx.Row) (*models.MatchTeam, error) {
	var t models.MatchTeam
	err := row.Scan(&t.ID, &t.MatchID, &t.TwoTeamPosition, &t.FourTeamPosition, &t.TeamName,
		&t.Institution, &t.FinalRank, &t.TotalSpeakerPoints, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTeamsForMatch eagerly creates the fixed team slots for a match:
// government and opposition for two_team, the four BP benches otherwise.
func (s *Store) CreateTeamsForMatch(ctx context.Context, matchID uuid.UUID, format models.TeamFormat) ([]models.MatchTeam, error) {
	start := time.Now()
	teams := make([]models.MatchTeam, 0, 4)

	insert := func(twoPos *models.TwoTeamPosition, fourPos *models.FourTeamPosition) error {
		t, err := scanTeam(s.pool.QueryRow(ctx, `
			INSERT INTO match_teams (match_id, two_team_position, four_team_position)
			VALUES ($1, $2, $3)
			RETURNING `+teamColumns,
			matchID, twoPos, fourPos))
		if err != nil {
			return err
		}
		teams = append(teams, *t)
		return nil
	}

	var err error
	switch format {
	case models.FormatTwoTeam:
		for _, pos := range []models.TwoTeamPosition{models.PositionGovernment, models.PositionOpposition} {
			pos := pos
			if err = insert(&pos, nil); err != nil {
				break
			}
		}
	case models.FormatFourTeam:
		for _, pos := range []models.FourTeamPosition{
			models.PositionOpeningGovernment, models.PositionOpeningOpposition,
			models.PositionClosingGovernment, models.PositionClosingOpposition,
		} {
			pos := pos
			if err = insert(nil, &pos); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown team format %q", format)
	}

	metrics.RecordDBQuery("insert", "match_teams", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create teams: %w", err)
	}
	return teams, nil
}

// GetTeam fetches one team, nil when not found.
func (s *Store) GetTeam(ctx context.Context, teamID uuid.UUID) (*models.MatchTeam, error) {
	start := time.Now()
	t, err := scanTeam(s.pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM match_teams WHERE id = $1`, teamID))
	metrics.RecordDBQuery("select", "match_teams", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

// ListTeamsByMatch returns a match's teams in bench order.
func (s *Store) ListTeamsByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchTeam, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT `+teamColumns+` FROM match_teams
		WHERE match_id = $1
		ORDER BY two_team_position, four_team_position`,
		matchID)
	metrics.RecordDBQuery("select", "match_teams", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.MatchTeam{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// UpdateTeam renames a team slot; nil fields keep their value.
func (s *Store) UpdateTeam(ctx context.Context, teamID uuid.UUID, name, institution *string) (*models.MatchTeam, error) {
	start := time.Now()
	t, err := scanTeam(s.pool.QueryRow(ctx, `
		UPDATE match_teams
		SET team_name = COALESCE($2, team_name),
		    institution = COALESCE($3, institution),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+teamColumns,
		teamID, name, institution))
	metrics.RecordDBQuery("update", "match_teams", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return t, nil
}

// UpdateTeamResults writes the aggregated final rank and speaker points.
func (s *Store) UpdateTeamResults(ctx context.Context, teamID uuid.UUID, finalRank int, totalPoints decimal.Decimal) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		UPDATE match_teams
		SET final_rank = $2, total_speaker_points = $3, updated_at = NOW()
		WHERE id = $1`,
		teamID, finalRank, totalPoints)
	metrics.RecordDBQuery("update", "match_teams", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update team results: %w", err)
	}
	return nil
}

// CheckedInUser is one checked-in attendee of an event.
type CheckedInUser struct {
	UserID      uuid.UUID
	Username    string
	CheckedInAt *time.Time
}

// CheckedInUsers lists an event's currently checked-in members.
func (s *Store) CheckedInUsers(ctx context.Context, eventID uuid.UUID) ([]CheckedInUser, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT ar.user_id, u.username, ar.checked_in_at
		FROM attendance ar
		JOIN users u ON u.id = ar.user_id
		WHERE ar.event_id = $1 AND ar.is_checked_in = TRUE
		ORDER BY u.username ASC`,
		eventID)
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list checked-in users: %w", err)
	}
	defer rows.Close()

	users := []CheckedInUser{}
	for rows.Next() {
		var u CheckedInUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan checked-in user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// IsUserCheckedIn reports the user's check-in state for an event.
func (s *Store) IsUserCheckedIn(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	start := time.Now()
	var checkedIn bool
	err := s.pool.QueryRow(ctx,
		`SELECT is_checked_in FROM attendance WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&checkedIn)
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check check-in: %w", err)
	}
	return checkedIn, nil
}
