// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

type speakerScoreEntry struct {
	AllocationID uuid.UUID       `json:"allocation_id" validate:"required"`
	Score        decimal.Decimal `json:"score" validate:"required"`
	Feedback     *string         `json:"feedback" validate:"omitempty,max=2000"`
}

type teamRankEntry struct {
	TeamID   uuid.UUID `json:"team_id" validate:"required"`
	Rank     int       `json:"rank" validate:"required,gte=1"`
	IsWinner *bool     `json:"is_winner"`
}

type submitBallotRequest struct {
	Notes         *string             `json:"notes" validate:"omitempty,max=5000"`
	SpeakerScores []speakerScoreEntry `json:"speaker_scores" validate:"dive"`
	TeamRankings  []teamRankEntry     `json:"team_rankings" validate:"dive"`
}

type submitFeedbackRequest struct {
	Notes string `json:"notes" validate:"required,max=5000"`
}

type speakerScoreView struct {
	ID              uuid.UUID       `json:"id"`
	AllocationID    uuid.UUID       `json:"allocation_id"`
	SpeakerUsername string          `json:"speaker_username"`
	Score           decimal.Decimal `json:"score"`
	Feedback        *string         `json:"feedback,omitempty"`
}

type teamRankingView struct {
	ID       uuid.UUID `json:"id"`
	TeamID   uuid.UUID `json:"team_id"`
	TeamName string    `json:"team_name"`
	Rank     int       `json:"rank"`
	IsWinner *bool     `json:"is_winner,omitempty"`
}

type ballotResponse struct {
	ID                  uuid.UUID          `json:"id"`
	MatchID             uuid.UUID          `json:"match_id"`
	AdjudicatorID       uuid.UUID          `json:"adjudicator_id"`
	AdjudicatorUsername string             `json:"adjudicator_username"`
	IsVoting            bool               `json:"is_voting"`
	IsSubmitted         bool               `json:"is_submitted"`
	SubmittedAt         *time.Time         `json:"submitted_at,omitempty"`
	Notes               *string            `json:"notes,omitempty"`
	SpeakerScores       []speakerScoreView `json:"speaker_scores"`
	TeamRankings        []teamRankingView  `json:"team_rankings"`
}

// teamDisplayName prefers the assigned name and falls back to the bench
// position for unnamed slots.
func teamDisplayName(t *models.MatchTeam) string {
	switch {
	case t == nil:
		return "Unknown"
	case t.TeamName != nil && *t.TeamName != "":
		return *t.TeamName
	case t.TwoTeamPosition != nil:
		return string(*t.TwoTeamPosition)
	case t.FourTeamPosition != nil:
		return string(*t.FourTeamPosition)
	}
	return "Unknown"
}

func (h *Handler) allocationDisplayName(ctx context.Context, allocationID uuid.UUID) (string, error) {
	alloc, err := h.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return "", err
	}
	if alloc == nil {
		return "Unknown", nil
	}
	if alloc.UserID != nil {
		username, err := h.store.FindUsername(ctx, *alloc.UserID)
		if err != nil {
			return "", err
		}
		if username != "" {
			return username, nil
		}
	}
	if alloc.GuestName != nil {
		return *alloc.GuestName, nil
	}
	return "Unknown", nil
}

func (h *Handler) buildBallotResponse(ctx context.Context, ballot *models.Ballot) (*ballotResponse, error) {
	username, err := h.store.FindUsername(ctx, ballot.AdjudicatorID)
	if err != nil {
		return nil, err
	}

	scores, err := h.store.ListSpeakerScores(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	scoreViews := make([]speakerScoreView, 0, len(scores))
	for _, sc := range scores {
		name, err := h.allocationDisplayName(ctx, sc.AllocationID)
		if err != nil {
			return nil, err
		}
		scoreViews = append(scoreViews, speakerScoreView{
			ID:              sc.ID,
			AllocationID:    sc.AllocationID,
			SpeakerUsername: name,
			Score:           sc.Score,
			Feedback:        sc.Feedback,
		})
	}

	rankings, err := h.store.ListTeamRankings(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	rankViews := make([]teamRankingView, 0, len(rankings))
	for _, tr := range rankings {
		team, err := h.store.GetTeam(ctx, tr.TeamID)
		if err != nil {
			return nil, err
		}
		rankViews = append(rankViews, teamRankingView{
			ID:       tr.ID,
			TeamID:   tr.TeamID,
			TeamName: teamDisplayName(team),
			Rank:     tr.Rank,
			IsWinner: tr.IsWinner,
		})
	}

	return &ballotResponse{
		ID:                  ballot.ID,
		MatchID:             ballot.MatchID,
		AdjudicatorID:       ballot.AdjudicatorID,
		AdjudicatorUsername: username,
		IsVoting:            ballot.IsVoting,
		IsSubmitted:         ballot.IsSubmitted,
		SubmittedAt:         ballot.SubmittedAt,
		Notes:               ballot.Notes,
		SpeakerScores:       scoreViews,
		TeamRankings:        rankViews,
	}, nil
}

// GetMyBallot returns the caller's ballot for a match, creating an empty
// one on first view.
func (h *Handler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	alloc, err := h.store.GetAdjudicatorAllocation(r.Context(), matchID, identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if alloc == nil {
		httpx.Error(w, http.StatusForbidden, "You are not an adjudicator for this match")
		return
	}

	ballot, err := h.store.EnsureBallot(r.Context(), matchID, identity.UserID,
		alloc.Role == models.RoleVotingAdjudicator)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}

	resp, err := h.buildBallotResponse(r.Context(), ballot)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// SubmitBallot records a voting adjudicator's scores and rankings and
// recomputes the match results from every submitted voting ballot.
func (h *Handler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}
	var req submitBallotRequest
	if !decodeValid(w, r, &req) {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	alloc, err := h.store.GetAdjudicatorAllocation(r.Context(), matchID, identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if alloc == nil {
		httpx.Error(w, http.StatusForbidden, "You are not an adjudicator for this match")
		return
	}
	if alloc.Role != models.RoleVotingAdjudicator {
		httpx.Error(w, http.StatusForbidden, "Only voting adjudicators can submit ballots with scores")
		return
	}

	rankings := make([]RankEntry, 0, len(req.TeamRankings))
	for _, tr := range req.TeamRankings {
		rankings = append(rankings, RankEntry{TeamID: tr.TeamID, Rank: tr.Rank, IsWinner: tr.IsWinner})
	}
	if !uniqueRanks(rankings) {
		httpx.Error(w, http.StatusBadRequest, "Rankings must be unique (no ties)")
		return
	}
	scores := make([]ScoreEntry, 0, len(req.SpeakerScores))
	for _, sc := range req.SpeakerScores {
		scores = append(scores, ScoreEntry{AllocationID: sc.AllocationID, Score: sc.Score, Feedback: sc.Feedback})
	}

	ballot, err := h.store.EnsureBallot(r.Context(), matchID, identity.UserID, true)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}

	submitted, err := h.store.SubmitScoredBallot(r.Context(), ballot.ID, req.Notes, scores, rankings)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("ballot submission failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	if err := h.recalculateMatchResults(r.Context(), matchID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("result recalculation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to recalculate results")
		return
	}
	metrics.BallotsSubmittedTotal.Inc()

	resp, err := h.buildBallotResponse(r.Context(), submitted)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Ballot submitted successfully",
		"ballot":  resp,
	})
}

// recalculateMatchResults rebuilds each team's final rank and speaker
// point total from the submitted voting ballots.
func (h *Handler) recalculateMatchResults(ctx context.Context, matchID uuid.UUID) error {
	ranked, err := h.store.MatchTeamAverageRanks(ctx, matchID)
	if err != nil {
		return err
	}
	teams, err := h.store.ListTeamsByMatch(ctx, matchID)
	if err != nil {
		return err
	}
	finalRanks := assignFinalRanks(ranked, teams)

	for _, team := range teams {
		allocs, err := h.store.ListAllocationsByTeam(ctx, team.ID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, a := range allocs {
			if a.Role != models.RoleSpeaker {
				continue
			}
			avg, err := h.store.AllocationAverageScore(ctx, a.ID)
			if err != nil {
				return err
			}
			if avg != nil {
				total = total.Add(*avg)
			}
		}
		if err := h.store.UpdateTeamResults(ctx, team.ID, finalRanks[team.ID], total); err != nil {
			return err
		}
	}
	return nil
}

// SubmitFeedback records written feedback from any adjudicator on the
// panel, voting or not.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}
	var req submitFeedbackRequest
	if !decodeValid(w, r, &req) {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	alloc, err := h.store.GetUserAllocation(r.Context(), matchID, identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if alloc == nil {
		httpx.Error(w, http.StatusForbidden, "You are not allocated to this match")
		return
	}
	if !alloc.Role.IsAdjudicator() {
		httpx.Error(w, http.StatusForbidden, "Only adjudicators can submit feedback")
		return
	}

	ballot, err := h.store.EnsureBallot(r.Context(), matchID, identity.UserID,
		alloc.Role == models.RoleVotingAdjudicator)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}

	updated, err := h.store.SubmitBallotNotes(r.Context(), ballot.ID, req.Notes)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}

	resp, err := h.buildBallotResponse(r.Context(), updated)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballot")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Feedback submitted successfully",
		"ballot":  resp,
	})
}

// AdminGetMatchBallots returns every ballot of a match, voting first.
func (h *Handler) AdminGetMatchBallots(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}

	ballots, err := h.store.ListBallotsByMatch(r.Context(), matchID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballots")
		return
	}
	responses := make([]ballotResponse, 0, len(ballots))
	for i := range ballots {
		resp, err := h.buildBallotResponse(r.Context(), &ballots[i])
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch ballots")
			return
		}
		responses = append(responses, *resp)
	}
	httpx.JSON(w, http.StatusOK, responses)
}

type performanceResponse struct {
	UserID              uuid.UUID        `json:"user_id"`
	Username            string           `json:"username"`
	TotalRounds         int64            `json:"total_rounds"`
	RoundsAsSpeaker     int64            `json:"rounds_as_speaker"`
	RoundsAsAdjudicator int64            `json:"rounds_as_adjudicator"`
	AverageSpeakerScore *decimal.Decimal `json:"average_speaker_score,omitempty"`
	TotalWins           int64            `json:"total_wins"`
	TotalLosses         int64            `json:"total_losses"`
	WinRate             *decimal.Decimal `json:"win_rate,omitempty"`
	Rankings            []RankingCount   `json:"rankings"`
}

// GetUserPerformance aggregates a member's debating record, optionally
// scoped to one event via the event_id query parameter.
func (h *Handler) GetUserPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "user_id", "user ID")
	if !ok {
		return
	}

	username, err := h.store.FindUsername(r.Context(), userID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if username == "" {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	var eventID *uuid.UUID
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid event ID")
			return
		}
		eventID = &id
	}

	counts, err := h.store.UserRoundCounts(r.Context(), userID, eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch performance")
		return
	}
	avgScore, err := h.store.UserAverageSpeakerScore(r.Context(), userID, eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch performance")
		return
	}
	wins, losses, err := h.store.UserWinLoss(r.Context(), userID, eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch performance")
		return
	}
	rankings, err := h.store.UserRankingDistribution(r.Context(), userID, eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch performance")
		return
	}

	var winRate *decimal.Decimal
	if games := wins + losses; games > 0 {
		rate := decimal.NewFromInt(wins * 100).Div(decimal.NewFromInt(games))
		winRate = &rate
	}

	httpx.JSON(w, http.StatusOK, performanceResponse{
		UserID:              userID,
		Username:            username,
		TotalRounds:         counts.Total,
		RoundsAsSpeaker:     counts.Speaker,
		RoundsAsAdjudicator: counts.Adjudicator,
		AverageSpeakerScore: avgScore,
		TotalWins:           wins,
		TotalLosses:         losses,
		WinRate:             winRate,
		Rankings:            rankings,
	})
}
