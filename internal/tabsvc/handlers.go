// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

// Handler holds the tabulation service's dependencies.
type Handler struct {
	store *Store
}

// NewHandler wires the tabulation handlers.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createSeriesRequest struct {
	EventID            uuid.UUID         `json:"event_id" validate:"required"`
	Name               string            `json:"name" validate:"required,min=1,max=255"`
	Description        *string           `json:"description"`
	RoundNumber        *int              `json:"round_number" validate:"omitempty,gte=1"`
	TeamFormat         models.TeamFormat `json:"team_format" validate:"required,oneof=two_team four_team"`
	AllowReplySpeeches bool              `json:"allow_reply_speeches"`
	IsBreakRound       bool              `json:"is_break_round"`
}

type updateSeriesRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description        *string `json:"description"`
	AllowReplySpeeches *bool   `json:"allow_reply_speeches"`
	IsBreakRound       *bool   `json:"is_break_round"`
}

type createMatchRequest struct {
	SeriesID      uuid.UUID  `json:"series_id" validate:"required"`
	RoomName      *string    `json:"room_name" validate:"omitempty,max=255"`
	Motion        *string    `json:"motion"`
	InfoSlide     *string    `json:"info_slide"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

type updateMatchRequest struct {
	RoomName      *string             `json:"room_name" validate:"omitempty,max=255"`
	Motion        *string             `json:"motion"`
	InfoSlide     *string             `json:"info_slide"`
	Status        *models.MatchStatus `json:"status" validate:"omitempty,oneof=draft published in_progress completed cancelled"`
	ScheduledTime *time.Time          `json:"scheduled_time"`
}

type releaseToggleRequest struct {
	ScoresReleased   *bool `json:"scores_released"`
	RankingsReleased *bool `json:"rankings_released"`
}

type updateTeamRequest struct {
	TeamName    *string `json:"team_name" validate:"omitempty,max=255"`
	Institution *string `json:"institution" validate:"omitempty,max=255"`
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(w, r, dst); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if ve := validation.ValidateStruct(dst); ve != nil {
		httpx.Error(w, http.StatusBadRequest, "Validation error: "+ve.Error())
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// CreateSeries creates a round of matches for an event.
func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if !decodeValid(w, r, &req) {
		return
	}

	exists, err := h.store.EventExists(r.Context(), req.EventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}
	if !exists {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	series, err := h.store.CreateSeries(r.Context(), CreateSeriesParams{
		EventID:            req.EventID,
		Name:               req.Name,
		Description:        req.Description,
		RoundNumber:        req.RoundNumber,
		TeamFormat:         req.TeamFormat,
		AllowReplySpeeches: req.AllowReplySpeeches,
		IsBreakRound:       req.IsBreakRound,
		CreatedBy:          identity.UserID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "unique_event_round") {
			httpx.Error(w, http.StatusConflict, "Round number already exists for this event")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("series creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create series")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Series created successfully",
		"series":  series,
	})
}

// ListSeries returns an event's series with match counts.
func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.URL.Query().Get("event_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	page := httpx.ParsePage(r, 20)
	series, total, err := h.store.ListSeriesByEvent(r.Context(), eventID, page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch series")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"series":      series,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}

// GetSeries returns one series with its match count.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := uuidParam(w, r, "series_id", "series ID")
	if !ok {
		return
	}

	series, err := h.store.GetSeries(r.Context(), seriesID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch series")
		return
	}
	if series == nil {
		httpx.Error(w, http.StatusNotFound, "Series not found")
		return
	}

	count, err := h.store.SeriesMatchCount(r.Context(), seriesID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch series")
		return
	}
	httpx.JSON(w, http.StatusOK, SeriesWithCount{MatchSeries: *series, MatchCount: count})
}

// UpdateSeries patches a series's mutable fields.
func (h *Handler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := uuidParam(w, r, "series_id", "series ID")
	if !ok {
		return
	}
	var req updateSeriesRequest
	if !decodeValid(w, r, &req) {
		return
	}

	series, err := h.store.UpdateSeries(r.Context(), seriesID, req.Name, req.Description,
		req.AllowReplySpeeches, req.IsBreakRound)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update series")
		return
	}
	if series == nil {
		httpx.Error(w, http.StatusNotFound, "Series not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Series updated successfully",
		"series":  series,
	})
}

// DeleteSeries removes a series and its matches.
func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := uuidParam(w, r, "series_id", "series ID")
	if !ok {
		return
	}

	deleted, err := h.store.DeleteSeries(r.Context(), seriesID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete series")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Series not found")
		return
	}
	httpx.Message(w, http.StatusOK, "Series deleted successfully")
}

// CreateMatch creates a match and eagerly creates its team slots from
// the series format.
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !decodeValid(w, r, &req) {
		return
	}

	series, err := h.store.GetSeries(r.Context(), req.SeriesID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch series")
		return
	}
	if series == nil {
		httpx.Error(w, http.StatusNotFound, "Series not found")
		return
	}

	match, err := h.store.CreateMatch(r.Context(), CreateMatchParams{
		SeriesID:      req.SeriesID,
		RoomName:      req.RoomName,
		Motion:        req.Motion,
		InfoSlide:     req.InfoSlide,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("match creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create match")
		return
	}

	teams, err := h.store.CreateTeamsForMatch(r.Context(), match.ID, series.TeamFormat)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("team creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create teams for match")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Match created successfully",
		"match":   match,
		"teams":   teams,
	})
}

// ListMatches returns matches for a series or an event.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20)
	q := r.URL.Query()

	var (
		matches []models.Match
		total   int64
		err     error
	)
	switch {
	case q.Get("series_id") != "":
		seriesID, perr := uuid.Parse(q.Get("series_id"))
		if perr != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid series ID")
			return
		}
		matches, total, err = h.store.ListMatchesBySeries(r.Context(), seriesID, page.PerPage, page.Offset())
	case q.Get("event_id") != "":
		eventID, perr := uuid.Parse(q.Get("event_id"))
		if perr != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid event ID")
			return
		}
		var status *models.MatchStatus
		if raw := q.Get("status"); raw != "" {
			st := models.MatchStatus(raw)
			if !st.Valid() {
				httpx.Errorf(w, http.StatusBadRequest, "Invalid match status: %s", raw)
				return
			}
			status = &st
		}
		matches, total, err = h.store.ListMatchesByEvent(r.Context(), eventID, status, page.PerPage, page.Offset())
	default:
		httpx.Error(w, http.StatusBadRequest, "Must provide series_id or event_id")
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch matches")
		return
	}

	responses := make([]matchResponse, 0, len(matches))
	for i := range matches {
		resp, err := h.buildMatchResponse(r.Context(), &matches[i], false)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch matches")
			return
		}
		responses = append(responses, *resp)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"matches":     responses,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}

// GetMatch returns one match with teams, speakers, and panel. Scores and
// final ranks stay hidden until released unless the viewer is an admin.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}

	match, err := h.store.GetMatch(r.Context(), matchID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch match")
		return
	}
	if match == nil {
		httpx.Error(w, http.StatusNotFound, "Match not found")
		return
	}

	resp, err := h.buildMatchResponse(r.Context(), match, auth.IsAdminFromContext(r.Context()))
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch match")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// UpdateMatch patches a match's mutable fields.
func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}
	var req updateMatchRequest
	if !decodeValid(w, r, &req) {
		return
	}

	match, err := h.store.UpdateMatch(r.Context(), matchID, UpdateMatchParams{
		RoomName:      req.RoomName,
		Motion:        req.Motion,
		InfoSlide:     req.InfoSlide,
		Status:        req.Status,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update match")
		return
	}
	if match == nil {
		httpx.Error(w, http.StatusNotFound, "Match not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Match updated successfully",
		"match":   match,
	})
}

// ToggleRelease flips the visibility toggles. Releasing scores forces
// rankings out with them; scores without rankings would be nonsense.
func (h *Handler) ToggleRelease(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}
	var req releaseToggleRequest
	if !decodeValid(w, r, &req) {
		return
	}

	rankings := req.RankingsReleased
	if req.ScoresReleased != nil && *req.ScoresReleased {
		t := true
		rankings = &t
	}

	match, err := h.store.UpdateMatchRelease(r.Context(), matchID, req.ScoresReleased, rankings)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update release status")
		return
	}
	if match == nil {
		httpx.Error(w, http.StatusNotFound, "Match not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Release status updated successfully",
		"match":   match,
	})
}

// DeleteMatch removes a match.
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}

	deleted, err := h.store.DeleteMatch(r.Context(), matchID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete match")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Match not found")
		return
	}
	httpx.Message(w, http.StatusOK, "Match deleted successfully")
}

// UpdateTeam renames a team slot.
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := uuidParam(w, r, "team_id", "team ID")
	if !ok {
		return
	}
	var req updateTeamRequest
	if !decodeValid(w, r, &req) {
		return
	}

	team, err := h.store.UpdateTeam(r.Context(), teamID, req.TeamName, req.Institution)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update team")
		return
	}
	if team == nil {
		httpx.Error(w, http.StatusNotFound, "Team not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Team updated successfully",
		"team":    team,
	})
}

// speakerView is one speaker slot in a match response. Score is only
// populated when scores are released or the viewer is an admin.
type speakerView struct {
	AllocationID        uuid.UUID                   `json:"allocation_id"`
	UserID              *uuid.UUID                  `json:"user_id,omitempty"`
	GuestName           *string                     `json:"guest_name,omitempty"`
	Username            string                      `json:"username"`
	TwoTeamSpeakerRole  *models.TwoTeamSpeakerRole  `json:"two_team_speaker_role,omitempty"`
	FourTeamSpeakerRole *models.FourTeamSpeakerRole `json:"four_team_speaker_role,omitempty"`
	Score               *decimal.Decimal            `json:"score,omitempty"`
}

type resourceView struct {
	AllocationID uuid.UUID  `json:"allocation_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	GuestName    *string    `json:"guest_name,omitempty"`
	Username     string     `json:"username"`
}

type adjudicatorView struct {
	AllocationID uuid.UUID  `json:"allocation_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	GuestName    *string    `json:"guest_name,omitempty"`
	Username     string     `json:"username"`
	IsVoting     bool       `json:"is_voting"`
	IsChair      bool       `json:"is_chair"`
	HasSubmitted bool       `json:"has_submitted"`
}

type teamView struct {
	ID                 uuid.UUID                `json:"id"`
	TwoTeamPosition    *models.TwoTeamPosition  `json:"two_team_position,omitempty"`
	FourTeamPosition   *models.FourTeamPosition `json:"four_team_position,omitempty"`
	TeamName           *string                  `json:"team_name,omitempty"`
	Institution        *string                  `json:"institution,omitempty"`
	FinalRank          *int                     `json:"final_rank,omitempty"`
	TotalSpeakerPoints *decimal.Decimal         `json:"total_speaker_points,omitempty"`
	Speakers           []speakerView            `json:"speakers"`
	Resources          []resourceView           `json:"resources"`
}

type matchResponse struct {
	ID               uuid.UUID          `json:"id"`
	SeriesID         uuid.UUID          `json:"series_id"`
	SeriesName       string             `json:"series_name"`
	RoomName         *string            `json:"room_name,omitempty"`
	Motion           *string            `json:"motion,omitempty"`
	InfoSlide        *string            `json:"info_slide,omitempty"`
	Status           models.MatchStatus `json:"status"`
	ScheduledTime    *time.Time         `json:"scheduled_time,omitempty"`
	ScoresReleased   bool               `json:"scores_released"`
	RankingsReleased bool               `json:"rankings_released"`
	Teams            []teamView         `json:"teams"`
	Adjudicators     []adjudicatorView  `json:"adjudicators"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// buildMatchResponse assembles the full match view, filtering scores and
// final ranks by the release toggles unless the viewer is an admin.
func (h *Handler) buildMatchResponse(ctx context.Context, match *models.Match, isAdmin bool) (*matchResponse, error) {
	series, err := h.store.GetSeries(ctx, match.SeriesID)
	if err != nil {
		return nil, err
	}
	var seriesName string
	if series != nil {
		seriesName = series.Name
	}

	teams, err := h.store.ListTeamsByMatch(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	showScores := match.ScoresReleased || isAdmin
	showRanks := match.RankingsReleased || isAdmin

	teamViews := make([]teamView, 0, len(teams))
	for _, team := range teams {
		allocs, err := h.store.ListAllocationsByTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}

		tv := teamView{
			ID:               team.ID,
			TwoTeamPosition:  team.TwoTeamPosition,
			FourTeamPosition: team.FourTeamPosition,
			TeamName:         team.TeamName,
			Institution:      team.Institution,
			Speakers:         []speakerView{},
			Resources:        []resourceView{},
		}
		if showRanks {
			tv.FinalRank = team.FinalRank
		}
		if showScores {
			tv.TotalSpeakerPoints = team.TotalSpeakerPoints
		}

		for _, a := range allocs {
			switch a.Role {
			case models.RoleSpeaker:
				sv := speakerView{
					AllocationID:        a.ID,
					UserID:              a.UserID,
					GuestName:           a.GuestName,
					Username:            a.Username,
					TwoTeamSpeakerRole:  a.TwoTeamSpeakerRole,
					FourTeamSpeakerRole: a.FourTeamSpeakerRole,
				}
				if showScores {
					avg, err := h.store.AllocationAverageScore(ctx, a.ID)
					if err != nil {
						return nil, err
					}
					sv.Score = avg
				}
				tv.Speakers = append(tv.Speakers, sv)
			case models.RoleResource:
				tv.Resources = append(tv.Resources, resourceView{
					AllocationID: a.ID,
					UserID:       a.UserID,
					GuestName:    a.GuestName,
					Username:     a.Username,
				})
			}
		}
		teamViews = append(teamViews, tv)
	}

	allAllocs, err := h.store.ListAllocationsByMatch(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	adjudicators := []adjudicatorView{}
	for _, a := range allAllocs {
		if !a.Role.IsAdjudicator() {
			continue
		}
		// Guests never hold ballots.
		hasSubmitted := false
		if a.UserID != nil {
			ballot, err := h.store.GetBallot(ctx, match.ID, *a.UserID)
			if err != nil {
				return nil, err
			}
			hasSubmitted = ballot != nil && ballot.IsSubmitted
		}
		isChair := a.IsChair != nil && *a.IsChair
		adjudicators = append(adjudicators, adjudicatorView{
			AllocationID: a.ID,
			UserID:       a.UserID,
			GuestName:    a.GuestName,
			Username:     a.Username,
			IsVoting:     a.Role == models.RoleVotingAdjudicator,
			IsChair:      isChair,
			HasSubmitted: hasSubmitted,
		})
	}

	return &matchResponse{
		ID:               match.ID,
		SeriesID:         match.SeriesID,
		SeriesName:       seriesName,
		RoomName:         match.RoomName,
		Motion:           match.Motion,
		InfoSlide:        match.InfoSlide,
		Status:           match.Status,
		ScheduledTime:    match.ScheduledTime,
		ScoresReleased:   match.ScoresReleased,
		RankingsReleased: match.RankingsReleased,
		Teams:            teamViews,
		Adjudicators:     adjudicators,
		CreatedAt:        match.CreatedAt,
		UpdatedAt:        match.UpdatedAt,
	}, nil
}
