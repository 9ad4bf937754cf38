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
	"github.com/shopspring/decimal"

	"github.com/tomtom215/podium/internal/database/query"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

const ballotColumns = `id, match_id, adjudicator_id, is_voting, is_submitted,
	submitted_at, notes, created_at, updated_at`

func scanBallot(row pgx.Row) (*models.Ballot, error) {
	var b models.Ballot
	err := row.Scan(&b.ID, &b.MatchID, &b.AdjudicatorID, &b.IsVoting, &b.IsSubmitted,
		&b.SubmittedAt, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// EnsureBallot returns the adjudicator's ballot for a match, creating an
// unsubmitted one when absent. The no-op DO UPDATE makes the upsert
// always return the row.
func (s *Store) EnsureBallot(ctx context.Context, matchID, adjudicatorID uuid.UUID, isVoting bool) (*models.Ballot, error) {
	start := time.Now()
	b, err := scanBallot(s.pool.QueryRow(ctx, `
		INSERT INTO ballots (match_id, adjudicator_id, is_voting)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, adjudicator_id) DO UPDATE SET match_id = EXCLUDED.match_id
		RETURNING `+ballotColumns,
		matchID, adjudicatorID, isVoting))
	metrics.RecordDBQuery("insert", "ballots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("ensure ballot: %w", err)
	}
	return b, nil
}

// GetBallot fetches the adjudicator's ballot for a match, nil when none.
func (s *Store) GetBallot(ctx context.Context, matchID, adjudicatorID uuid.UUID) (*models.Ballot, error) {
	start := time.Now()
	b, err := scanBallot(s.pool.QueryRow(ctx,
		`SELECT `+ballotColumns+` FROM ballots WHERE match_id = $1 AND adjudicator_id = $2`,
		matchID, adjudicatorID))
	metrics.RecordDBQuery("select", "ballots", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ballot: %w", err)
	}
	return b, nil
}

// ListBallotsByMatch returns a match's ballots, voting panel first.
func (s *Store) ListBallotsByMatch(ctx context.Context, matchID uuid.UUID) ([]models.Ballot, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT `+ballotColumns+` FROM ballots
		WHERE match_id = $1
		ORDER BY is_voting DESC, created_at ASC`,
		matchID)
	metrics.RecordDBQuery("select", "ballots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, *b)
	}
	return ballots, rows.Err()
}

// ScoreEntry is one speaker score going into a ballot.
type ScoreEntry struct {
	AllocationID uuid.UUID
	Score        decimal.Decimal
	Feedback     *string
}

// RankEntry is one team ranking going into a ballot.
type RankEntry struct {
	TeamID   uuid.UUID
	Rank     int
	IsWinner *bool
}

// SubmitScoredBallot replaces the ballot's scores and rankings and marks
// it submitted, all in one transaction so a half-written resubmission
// never lands.
func (s *Store) SubmitScoredBallot(ctx context.Context, ballotID uuid.UUID, notes *string, scores []ScoreEntry, rankings []RankEntry) (*models.Ballot, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ballot submit: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM speaker_scores WHERE ballot_id = $1`, ballotID); err != nil {
		return nil, fmt.Errorf("clear speaker scores: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM team_rankings WHERE ballot_id = $1`, ballotID); err != nil {
		return nil, fmt.Errorf("clear team rankings: %w", err)
	}

	for _, sc := range scores {
		if _, err = tx.Exec(ctx, `
			INSERT INTO speaker_scores (ballot_id, allocation_id, score, feedback)
			VALUES ($1, $2, $3, $4)`,
			ballotID, sc.AllocationID, sc.Score, sc.Feedback); err != nil {
			return nil, fmt.Errorf("insert speaker score: %w", err)
		}
	}
	for _, rk := range rankings {
		if _, err = tx.Exec(ctx, `
			INSERT INTO team_rankings (ballot_id, team_id, rank, is_winner)
			VALUES ($1, $2, $3, $4)`,
			ballotID, rk.TeamID, rk.Rank, rk.IsWinner); err != nil {
			return nil, fmt.Errorf("insert team ranking: %w", err)
		}
	}

	b, err := scanBallot(tx.QueryRow(ctx, `
		UPDATE ballots
		SET is_submitted = TRUE, submitted_at = NOW(), notes = COALESCE($2, notes), updated_at = NOW()
		WHERE id = $1
		RETURNING `+ballotColumns,
		ballotID, notes))
	if err != nil {
		metrics.RecordDBQuery("update", "ballots", time.Since(start), err)
		return nil, fmt.Errorf("mark ballot submitted: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.RecordDBQuery("update", "ballots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("commit ballot submit: %w", err)
	}
	return b, nil
}

// SubmitBallotNotes marks a ballot submitted with notes only. Used by
// non-voting adjudicators for written feedback.
func (s *Store) SubmitBallotNotes(ctx context.Context, ballotID uuid.UUID, notes string) (*models.Ballot, error) {
	start := time.Now()
	b, err := scanBallot(s.pool.QueryRow(ctx, `
		UPDATE ballots
		SET is_submitted = TRUE, submitted_at = NOW(), notes = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ballotColumns,
		ballotID, notes))
	metrics.RecordDBQuery("update", "ballots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("submit ballot notes: %w", err)
	}
	return b, nil
}

// ListSpeakerScores returns a ballot's scores.
func (s *Store) ListSpeakerScores(ctx context.Context, ballotID uuid.UUID) ([]models.SpeakerScore, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, ballot_id, allocation_id, score, feedback, created_at, updated_at
		FROM speaker_scores WHERE ballot_id = $1`,
		ballotID)
	metrics.RecordDBQuery("select", "speaker_scores", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list speaker scores: %w", err)
	}
	defer rows.Close()

	scores := []models.SpeakerScore{}
	for rows.Next() {
		var sc models.SpeakerScore
		if err := rows.Scan(&sc.ID, &sc.BallotID, &sc.AllocationID, &sc.Score, &sc.Feedback,
			&sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan speaker score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// ListTeamRankings returns a ballot's rankings, best rank first.
func (s *Store) ListTeamRankings(ctx context.Context, ballotID uuid.UUID) ([]models.TeamRanking, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, ballot_id, team_id, rank, is_winner, created_at, updated_at
		FROM team_rankings WHERE ballot_id = $1 ORDER BY rank ASC`,
		ballotID)
	metrics.RecordDBQuery("select", "team_rankings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list team rankings: %w", err)
	}
	defer rows.Close()

	rankings := []models.TeamRanking{}
	for rows.Next() {
		var tr models.TeamRanking
		if err := rows.Scan(&tr.ID, &tr.BallotID, &tr.TeamID, &tr.Rank, &tr.IsWinner,
			&tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team ranking: %w", err)
		}
		rankings = append(rankings, tr)
	}
	return rankings, rows.Err()
}

// TeamAvgRank is a team's average rank across submitted voting ballots.
type TeamAvgRank struct {
	TeamID  uuid.UUID
	AvgRank float64
}

// MatchTeamAverageRanks aggregates ranks from submitted voting ballots,
// best average first. Non-voting ballots never count.
func (s *Store) MatchTeamAverageRanks(ctx context.Context, matchID uuid.UUID) ([]TeamAvgRank, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT tr.team_id, AVG(tr.rank::float8)
		FROM team_rankings tr
		JOIN ballots b ON b.id = tr.ballot_id
		WHERE b.match_id = $1 AND b.is_submitted = TRUE AND b.is_voting = TRUE
		GROUP BY tr.team_id
		ORDER BY AVG(tr.rank::float8) ASC`,
		matchID)
	metrics.RecordDBQuery("select", "team_rankings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("aggregate team ranks: %w", err)
	}
	defer rows.Close()

	ranks := []TeamAvgRank{}
	for rows.Next() {
		var tr TeamAvgRank
		if err := rows.Scan(&tr.TeamID, &tr.AvgRank); err != nil {
			return nil, fmt.Errorf("scan team rank: %w", err)
		}
		ranks = append(ranks, tr)
	}
	return ranks, rows.Err()
}

// AllocationAverageScore averages a speaker's scores from submitted
// voting ballots, nil when unscored.
func (s *Store) AllocationAverageScore(ctx context.Context, allocationID uuid.UUID) (*decimal.Decimal, error) {
	start := time.Now()
	var avg *decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT AVG(ss.score)
		FROM speaker_scores ss
		JOIN ballots b ON b.id = ss.ballot_id
		WHERE ss.allocation_id = $1 AND b.is_submitted = TRUE AND b.is_voting = TRUE`,
		allocationID,
	).Scan(&avg)
	metrics.RecordDBQuery("select", "speaker_scores", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("average allocation score: %w", err)
	}
	return avg, nil
}

// RoundCounts summarizes how many matches a user participated in, split
// by role family.
type RoundCounts struct {
	Total       int64
	Speaker     int64
	Adjudicator int64
}

// eventScopeJoin joins allocations out to their event for event-scoped
// performance queries.
const eventScopeJoin = `
		JOIN matches m ON m.id = a.match_id
		JOIN match_series ms ON ms.id = m.series_id`

// UserRoundCounts counts the user's distinct matches, optionally scoped
// to one event.
func (s *Store) UserRoundCounts(ctx context.Context, userID uuid.UUID, eventID *uuid.UUID) (RoundCounts, error) {
	q := `
		SELECT COUNT(DISTINCT a.match_id),
		       COUNT(DISTINCT CASE WHEN a.role = 'speaker' THEN a.match_id END),
		       COUNT(DISTINCT CASE WHEN a.role IN ('voting_adjudicator', 'non_voting_adjudicator') THEN a.match_id END)
		FROM allocations a`
	wb := query.NewWhereBuilder()
	wb.Add("a.user_id = ?", userID)
	if eventID != nil {
		q += eventScopeJoin
		wb.Add("ms.event_id = ?", *eventID)
	}
	where, args := wb.Build()

	start := time.Now()
	var rc RoundCounts
	err := s.pool.QueryRow(ctx, q+`
		`+where, args...).Scan(&rc.Total, &rc.Speaker, &rc.Adjudicator)
	metrics.RecordDBQuery("select", "allocations", time.Since(start), err)
	if err != nil {
		return RoundCounts{}, fmt.Errorf("count user rounds: %w", err)
	}
	return rc, nil
}

// UserAverageSpeakerScore averages the user's scores from submitted
// ballots, nil when they were never scored.
func (s *Store) UserAverageSpeakerScore(ctx context.Context, userID uuid.UUID, eventID *uuid.UUID) (*decimal.Decimal, error) {
	q := `
		SELECT AVG(ss.score)
		FROM speaker_scores ss
		JOIN allocations a ON a.id = ss.allocation_id
		JOIN ballots b ON b.id = ss.ballot_id`
	wb := query.NewWhereBuilder()
	wb.Add("a.user_id = ?", userID)
	wb.Add("b.is_submitted = TRUE")
	if eventID != nil {
		q += eventScopeJoin
		wb.Add("ms.event_id = ?", *eventID)
	}
	where, args := wb.Build()

	start := time.Now()
	var avg *decimal.Decimal
	err := s.pool.QueryRow(ctx, q+`
		`+where, args...).Scan(&avg)
	metrics.RecordDBQuery("select", "speaker_scores", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("average speaker score: %w", err)
	}
	return avg, nil
}

// speakerResultFilter scopes team-ranking aggregates to the user's
// speaker allocations on submitted voting ballots.
func speakerResultFilter(userID uuid.UUID) *query.WhereBuilder {
	wb := query.NewWhereBuilder()
	wb.Add("a.user_id = ?", userID)
	wb.Add("a.role = 'speaker'")
	wb.Add("b.is_voting = TRUE")
	wb.Add("b.is_submitted = TRUE")
	return wb
}

// UserWinLoss counts wins and losses from the winner flags on submitted
// voting ballots for the user's speaker teams.
func (s *Store) UserWinLoss(ctx context.Context, userID uuid.UUID, eventID *uuid.UUID) (wins, losses int64, err error) {
	q := `
		SELECT COUNT(CASE WHEN tr.is_winner = TRUE THEN 1 END),
		       COUNT(CASE WHEN tr.is_winner = FALSE THEN 1 END)
		FROM allocations a
		JOIN team_rankings tr ON tr.team_id = a.team_id
		JOIN ballots b ON b.id = tr.ballot_id`
	wb := speakerResultFilter(userID)
	if eventID != nil {
		q += eventScopeJoin
		wb.Add("ms.event_id = ?", *eventID)
	}
	where, args := wb.Build()

	start := time.Now()
	err = s.pool.QueryRow(ctx, q+`
		`+where, args...).Scan(&wins, &losses)
	metrics.RecordDBQuery("select", "team_rankings", time.Since(start), err)
	if err != nil {
		return 0, 0, fmt.Errorf("count win/loss: %w", err)
	}
	return wins, losses, nil
}

// RankingCount is how often a user's team earned a given rank.
type RankingCount struct {
	Rank  int   `json:"rank"`
	Count int64 `json:"count"`
}

// UserRankingDistribution histograms the ranks of the user's speaker
// teams from submitted voting ballots.
func (s *Store) UserRankingDistribution(ctx context.Context, userID uuid.UUID, eventID *uuid.UUID) ([]RankingCount, error) {
	q := `
		SELECT tr.rank, COUNT(*)
		FROM allocations a
		JOIN team_rankings tr ON tr.team_id = a.team_id
		JOIN ballots b ON b.id = tr.ballot_id`
	wb := speakerResultFilter(userID)
	if eventID != nil {
		q += eventScopeJoin
		wb.Add("ms.event_id = ?", *eventID)
	}
	where, args := wb.Build()

	start := time.Now()
	rows, err := s.pool.Query(ctx, q+`
		`+where+`
		GROUP BY tr.rank
		ORDER BY tr.rank`, args...)
	metrics.RecordDBQuery("select", "team_rankings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("rank distribution: %w", err)
	}
	defer rows.Close()

	dist := []RankingCount{}
	for rows.Next() {
		var rc RankingCount
		if err := rows.Scan(&rc.Rank, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan rank count: %w", err)
		}
		dist = append(dist, rc)
	}
	return dist, rows.Err()
}
