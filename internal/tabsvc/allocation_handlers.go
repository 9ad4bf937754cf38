// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/models"
)

type createAllocationRequest struct {
	MatchID             uuid.UUID                   `json:"match_id" validate:"required"`
	UserID              *uuid.UUID                  `json:"user_id"`
	GuestName           *string                     `json:"guest_name" validate:"omitempty,min=1,max=255"`
	Role                models.AllocationRole       `json:"role" validate:"required,oneof=speaker resource voting_adjudicator non_voting_adjudicator"`
	TeamID              *uuid.UUID                  `json:"team_id"`
	TwoTeamSpeakerRole  *models.TwoTeamSpeakerRole  `json:"two_team_speaker_role"`
	FourTeamSpeakerRole *models.FourTeamSpeakerRole `json:"four_team_speaker_role"`
	IsChair             bool                        `json:"is_chair"`
}

type updateAllocationRequest struct {
	Role                *models.AllocationRole      `json:"role" validate:"omitempty,oneof=speaker resource voting_adjudicator non_voting_adjudicator"`
	TeamID              *uuid.UUID                  `json:"team_id"`
	TwoTeamSpeakerRole  *models.TwoTeamSpeakerRole  `json:"two_team_speaker_role"`
	FourTeamSpeakerRole *models.FourTeamSpeakerRole `json:"four_team_speaker_role"`
	IsChair             *bool                       `json:"is_chair"`
}

type swapAllocationsRequest struct {
	FirstAllocationID  uuid.UUID `json:"first_allocation_id" validate:"required"`
	SecondAllocationID uuid.UUID `json:"second_allocation_id" validate:"required"`
}

type currentAllocationView struct {
	MatchID  uuid.UUID             `json:"match_id"`
	RoomName *string               `json:"room_name,omitempty"`
	Role     models.AllocationRole `json:"role"`
}

type poolUserView struct {
	UserID            uuid.UUID              `json:"user_id"`
	Username          string                 `json:"username"`
	CheckedInAt       *time.Time             `json:"checked_in_at,omitempty"`
	IsAllocated       bool                   `json:"is_allocated"`
	CurrentAllocation *currentAllocationView `json:"current_allocation,omitempty"`
}

// GetAllocationPool lists a series's checked-in users and where each one
// already sits, so admins can see who is still free to allocate.
func (h *Handler) GetAllocationPool(w http.ResponseWriter, r *http.Request) {
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

	checkedIn, err := h.store.CheckedInUsers(r.Context(), series.EventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch checked-in users")
		return
	}

	users := make([]poolUserView, 0, len(checkedIn))
	allocated := 0
	for _, u := range checkedIn {
		view := poolUserView{
			UserID:      u.UserID,
			Username:    u.Username,
			CheckedInAt: u.CheckedInAt,
		}
		alloc, err := h.store.UserAllocationInSeries(r.Context(), seriesID, u.UserID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocations")
			return
		}
		if alloc != nil {
			view.IsAllocated = true
			allocated++
			current := currentAllocationView{MatchID: alloc.MatchID, Role: alloc.Role}
			match, err := h.store.GetMatch(r.Context(), alloc.MatchID)
			if err != nil {
				httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocations")
				return
			}
			if match != nil {
				current.RoomName = match.RoomName
			}
			view.CurrentAllocation = &current
		}
		users = append(users, view)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"event_id":         series.EventID,
		"series_id":        seriesID,
		"checked_in_users": users,
		"total_checked_in": len(users),
		"total_allocated":  allocated,
		"total_available":  len(users) - allocated,
	})
}

// CreateAllocation assigns a user or guest to a role in a match.
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req createAllocationRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if (req.UserID == nil) == (req.GuestName == nil) {
		httpx.Error(w, http.StatusBadRequest, "Either user_id or guest_name must be provided")
		return
	}

	match, err := h.store.GetMatch(r.Context(), req.MatchID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch match")
		return
	}
	if match == nil {
		httpx.Error(w, http.StatusNotFound, "Match not found")
		return
	}

	series, err := h.store.GetSeries(r.Context(), match.SeriesID)
	if err != nil || series == nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch series")
		return
	}

	wasCheckedIn := false
	if req.UserID != nil {
		username, err := h.store.FindUsername(r.Context(), *req.UserID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
			return
		}
		if username == "" {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}

		existing, err := h.store.ListAllocationsByMatch(r.Context(), req.MatchID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocations")
			return
		}
		wasCheckedIn, err = h.store.IsUserCheckedIn(r.Context(), series.EventID, *req.UserID)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch attendance")
			return
		}

		if isDuplicateAllocation(existing, CreateAllocationParams{
			UserID:              req.UserID,
			Role:                req.Role,
			TwoTeamSpeakerRole:  req.TwoTeamSpeakerRole,
			FourTeamSpeakerRole: req.FourTeamSpeakerRole,
		}) {
			httpx.Error(w, http.StatusConflict, "User already has this exact role in this match")
			return
		}
	}

	if req.Role == models.RoleSpeaker {
		if req.TeamID == nil {
			httpx.Error(w, http.StatusBadRequest, "Speakers must be assigned to a team")
			return
		}
		switch series.TeamFormat {
		case models.FormatTwoTeam:
			if req.TwoTeamSpeakerRole == nil {
				httpx.Error(w, http.StatusBadRequest, "Two-team speaker role required")
				return
			}
		case models.FormatFourTeam:
			if req.FourTeamSpeakerRole == nil {
				httpx.Error(w, http.StatusBadRequest, "Four-team speaker role required")
				return
			}
		}
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	alloc, err := h.store.CreateAllocation(r.Context(), CreateAllocationParams{
		MatchID:             req.MatchID,
		UserID:              req.UserID,
		GuestName:           req.GuestName,
		Role:                req.Role,
		TeamID:              req.TeamID,
		TwoTeamSpeakerRole:  req.TwoTeamSpeakerRole,
		FourTeamSpeakerRole: req.FourTeamSpeakerRole,
		IsChair:             req.IsChair,
		AllocatedBy:         identity.UserID,
		WasCheckedIn:        wasCheckedIn,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("allocation creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create allocation")
		return
	}

	if err := h.store.RecordAllocationChange(r.Context(), AllocationChange{
		AllocationID: &alloc.ID,
		MatchID:      alloc.MatchID,
		UserID:       alloc.UserID,
		GuestName:    alloc.GuestName,
		Action:       "created",
		NewRole:      &alloc.Role,
		NewTeamID:    alloc.TeamID,
		ChangedBy:    identity.UserID,
	}); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("allocation history write failed")
	}

	// Registered adjudicators get their ballot up front so the panel view
	// can show submission state immediately.
	if alloc.Role.IsAdjudicator() && alloc.UserID != nil {
		isVoting := alloc.Role == models.RoleVotingAdjudicator
		if _, err := h.store.EnsureBallot(r.Context(), alloc.MatchID, *alloc.UserID, isVoting); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("eager ballot creation failed")
		}
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":    "Allocation created successfully",
		"allocation": alloc,
	})
}

// UpdateAllocation patches an allocation and records the change.
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := uuidParam(w, r, "allocation_id", "allocation ID")
	if !ok {
		return
	}
	var req updateAllocationRequest
	if !decodeValid(w, r, &req) {
		return
	}

	existing, err := h.store.GetAllocation(r.Context(), allocationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if existing == nil {
		httpx.Error(w, http.StatusNotFound, "Allocation not found")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	alloc, err := h.store.UpdateAllocation(r.Context(), allocationID, UpdateAllocationParams{
		Role:                req.Role,
		TeamID:              req.TeamID,
		TwoTeamSpeakerRole:  req.TwoTeamSpeakerRole,
		FourTeamSpeakerRole: req.FourTeamSpeakerRole,
		IsChair:             req.IsChair,
		AllocatedBy:         identity.UserID,
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update allocation")
		return
	}
	if alloc == nil {
		httpx.Error(w, http.StatusNotFound, "Allocation not found")
		return
	}

	if err := h.store.RecordAllocationChange(r.Context(), AllocationChange{
		AllocationID:   &alloc.ID,
		MatchID:        alloc.MatchID,
		UserID:         alloc.UserID,
		GuestName:      alloc.GuestName,
		Action:         "updated",
		PreviousRole:   &existing.Role,
		NewRole:        &alloc.Role,
		PreviousTeamID: existing.TeamID,
		NewTeamID:      alloc.TeamID,
		ChangedBy:      identity.UserID,
	}); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("allocation history write failed")
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "Allocation updated successfully",
		"allocation": alloc,
	})
}

// SwapAllocations exchanges two participants' positions.
func (h *Handler) SwapAllocations(w http.ResponseWriter, r *http.Request) {
	var req swapAllocationsRequest
	if !decodeValid(w, r, &req) {
		return
	}

	first, err := h.store.GetAllocation(r.Context(), req.FirstAllocationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if first == nil {
		httpx.Error(w, http.StatusNotFound, "First allocation not found")
		return
	}
	second, err := h.store.GetAllocation(r.Context(), req.SecondAllocationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if second == nil {
		httpx.Error(w, http.StatusNotFound, "Second allocation not found")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.store.SwapAllocations(r.Context(), first, second, identity.UserID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("allocation swap failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to swap allocations")
		return
	}

	httpx.Message(w, http.StatusOK, "Allocations swapped successfully")
}

// DeleteAllocation removes an allocation, logging the removal first so
// the audit row still carries the participant's identity.
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := uuidParam(w, r, "allocation_id", "allocation ID")
	if !ok {
		return
	}

	existing, err := h.store.GetAllocation(r.Context(), allocationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation")
		return
	}
	if existing == nil {
		httpx.Error(w, http.StatusNotFound, "Allocation not found")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.store.RecordAllocationChange(r.Context(), AllocationChange{
		AllocationID:   &existing.ID,
		MatchID:        existing.MatchID,
		UserID:         existing.UserID,
		GuestName:      existing.GuestName,
		Action:         "deleted",
		PreviousRole:   &existing.Role,
		PreviousTeamID: existing.TeamID,
		ChangedBy:      identity.UserID,
	}); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("allocation history write failed")
	}

	deleted, err := h.store.DeleteAllocation(r.Context(), allocationID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete allocation")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Allocation not found")
		return
	}
	httpx.Message(w, http.StatusOK, "Allocation deleted successfully")
}

// GetAllocationHistory returns a match's allocation audit log.
func (h *Handler) GetAllocationHistory(w http.ResponseWriter, r *http.Request) {
	matchID, ok := uuidParam(w, r, "match_id", "match ID")
	if !ok {
		return
	}

	page := httpx.ParsePage(r, 50)
	history, total, err := h.store.ListAllocationHistory(r.Context(), matchID, page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch allocation history")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"history":     history,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}
