// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package meritsvc

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

// Handler holds the merit service's dependencies.
type Handler struct {
	store *Store
}

// NewHandler wires the merit handlers.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type updateMeritRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	ChangeAmount int       `json:"change_amount" validate:"required"`
	Reason       string    `json:"reason" validate:"required,min=3,max=500"`
}

type createAwardRequest struct {
	UserID      uuid.UUID        `json:"user_id" validate:"required"`
	Title       string           `json:"title" validate:"required,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	Tier        models.AwardTier `json:"tier" validate:"required,oneof=bronze silver gold"`
	Reason      string           `json:"reason" validate:"required,min=3,max=500"`
}

type upgradeAwardRequest struct {
	NewTier  models.AwardTier `json:"new_tier" validate:"required,oneof=bronze silver gold"`
	NewTitle *string          `json:"new_title" validate:"omitempty,min=1,max=255"`
	Reason   string           `json:"reason" validate:"required,min=3,max=500"`
}

type editAwardRequest struct {
	Title       string           `json:"title" validate:"required,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	Tier        models.AwardTier `json:"tier" validate:"required,oneof=bronze silver gold"`
}

// publicProfile is the profile shape shown to anonymous viewers and
// other members.
type publicProfile struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	YearJoined int       `json:"year_joined"`
	CreatedAt  time.Time `json:"created_at"`
}

// privateProfile adds contact details and merit; shown to the profile's
// owner, with IsAdmin populated only for admin viewers.
type privateProfile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	RegNumber   string    `json:"reg_number"`
	YearJoined  int       `json:"year_joined"`
	PhoneNumber string    `json:"phone_number"`
	MeritPoints int       `json:"merit_points"`
	IsAdmin     *bool     `json:"is_admin,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
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

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func awardIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "award_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid award ID")
		return uuid.Nil, false
	}
	return id, true
}

// GetUserProfile serves a member's profile. Visibility widens with the
// viewer: anonymous viewers and other members get the public shape,
// the owner gets contact details and merit, admins additionally see the
// admin flag. Unverified accounts resolve to 404 for everyone.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.FindProfileByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if p == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	identity, authed := auth.IdentityFromContext(r.Context())
	viewerIsAdmin := auth.IsAdminFromContext(r.Context())
	if !viewerIsAdmin && (!authed || identity.UserID != p.ID) {
		httpx.JSON(w, http.StatusOK, publicProfile{
			ID:         p.ID,
			Username:   p.Username,
			YearJoined: p.YearJoined,
			CreatedAt:  p.CreatedAt,
		})
		return
	}

	resp := privateProfile{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		RegNumber:   p.RegNumber,
		YearJoined:  p.YearJoined,
		PhoneNumber: p.PhoneNumber,
		MeritPoints: p.MeritPoints,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if viewerIsAdmin {
		resp.IsAdmin = &p.IsAdmin
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// GetUserAwards lists a member's awards for their public profile.
func (h *Handler) GetUserAwards(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.FindProfileByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if p == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	awards, err := h.store.GetUserAwards(r.Context(), p.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch awards")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"awards": awards,
		"total":  len(awards),
	})
}

// GetMyMerit returns the caller's merit total, creating the zero row on
// first touch.
func (h *Handler) GetMyMerit(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	merit, err := h.store.InitializeUserMerit(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch merit")
		return
	}
	httpx.JSON(w, http.StatusOK, merit)
}

// GetMyMeritHistory returns the caller's merit ledger, newest first.
func (h *Handler) GetMyMeritHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	h.writeMeritHistory(w, r, identity.UserID)
}

func (h *Handler) writeMeritHistory(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	page := httpx.ParsePage(r, 20)
	history, total, err := h.store.MeritHistory(r.Context(), userID, page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch merit history")
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

// GetMyAwards lists the caller's awards.
func (h *Handler) GetMyAwards(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	awards, err := h.store.GetUserAwards(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch awards")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"awards": awards,
		"total":  len(awards),
	})
}

// GetMyAwardHistory lists tier changes across the caller's awards.
func (h *Handler) GetMyAwardHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	history, err := h.store.GetUserAwardHistory(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch award history")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"history": history,
		"total":   len(history),
	})
}

// AdminListMerits returns the club-wide merit table.
func (h *Handler) AdminListMerits(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 50)
	standings, total, err := h.store.ListAllMerits(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch merits")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"merits":      standings,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}

// AdminUpdateMerit applies a signed merit change to a user. Admins may
// not adjust their own total.
func (h *Handler) AdminUpdateMerit(w http.ResponseWriter, r *http.Request) {
	var req updateMeritRequest
	if !decodeValid(w, r, &req) {
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	if req.UserID == identity.UserID {
		httpx.Error(w, http.StatusBadRequest, "Cannot modify your own merit points")
		return
	}

	username, err := h.store.FindUsername(r.Context(), req.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if username == "" {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	change, err := h.store.UpdateMerit(r.Context(), req.UserID, identity.UserID, req.ChangeAmount, req.Reason)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("merit update failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to update merit")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("target_user", req.UserID.String()).
		Int("change_amount", req.ChangeAmount).
		Int("new_total", change.NewTotal).
		Msg("merit updated")

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":        "Merit updated successfully",
		"user_id":        req.UserID,
		"username":       username,
		"previous_merit": change.PreviousTotal,
		"new_merit":      change.NewTotal,
		"change_amount":  req.ChangeAmount,
		"reason":         req.Reason,
	})
}

// AdminGetUserMerit returns one user's merit total, zero when the user
// has never been adjusted.
func (h *Handler) AdminGetUserMerit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
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

	merit, err := h.store.GetUserMerit(r.Context(), userID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch merit")
		return
	}
	points := 0
	if merit != nil {
		points = merit.MeritPoints
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":      userID,
		"username":     username,
		"merit_points": points,
	})
}

// AdminGetUserMeritHistory returns one user's merit ledger.
func (h *Handler) AdminGetUserMeritHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	h.writeMeritHistory(w, r, userID)
}

// AdminListAwards lists every award with display names.
func (h *Handler) AdminListAwards(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 50)
	awards, total, err := h.store.ListAllAwards(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch awards")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"awards":      awards,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}

// AdminCreateAward grants a new award and writes its first history entry.
func (h *Handler) AdminCreateAward(w http.ResponseWriter, r *http.Request) {
	var req createAwardRequest
	if !decodeValid(w, r, &req) {
		return
	}

	username, err := h.store.FindUsername(r.Context(), req.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if username == "" {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	award, err := h.store.CreateAward(r.Context(), CreateAwardParams{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Tier:        req.Tier,
		AwardedBy:   identity.UserID,
		Reason:      req.Reason,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("award creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create award")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Award created successfully",
		"award":   award,
	})
}

// AdminUpgradeAward moves an award to a strictly higher tier.
func (h *Handler) AdminUpgradeAward(w http.ResponseWriter, r *http.Request) {
	awardID, ok := awardIDParam(w, r)
	if !ok {
		return
	}
	var req upgradeAwardRequest
	if !decodeValid(w, r, &req) {
		return
	}

	award, err := h.store.GetAward(r.Context(), awardID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch award")
		return
	}
	if award == nil {
		httpx.Error(w, http.StatusNotFound, "Award not found")
		return
	}
	if req.NewTier.Rank() <= award.Tier.Rank() {
		httpx.Errorf(w, http.StatusBadRequest,
			"Cannot upgrade from %s to %s. Can only upgrade to a higher tier.", award.Tier, req.NewTier)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	upgraded, err := h.store.UpgradeAward(r.Context(), awardID, identity.UserID, award.Tier, req.NewTier, req.NewTitle, req.Reason)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("award upgrade failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to upgrade award")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Award upgraded successfully",
		"award":   upgraded,
	})
}

// AdminEditAward rewrites an award's fields without recording history.
func (h *Handler) AdminEditAward(w http.ResponseWriter, r *http.Request) {
	awardID, ok := awardIDParam(w, r)
	if !ok {
		return
	}
	var req editAwardRequest
	if !decodeValid(w, r, &req) {
		return
	}

	award, err := h.store.EditAward(r.Context(), awardID, req.Title, req.Description, req.Tier)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update award")
		return
	}
	if award == nil {
		httpx.Error(w, http.StatusNotFound, "Award not found")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Award updated successfully",
		"award":   award,
	})
}

// AdminDeleteAward removes an award and its history.
func (h *Handler) AdminDeleteAward(w http.ResponseWriter, r *http.Request) {
	awardID, ok := awardIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.DeleteAward(r.Context(), awardID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete award")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Award not found")
		return
	}
	httpx.Message(w, http.StatusOK, "Award deleted successfully")
}

// AdminGetUserAwardHistory lists the tier changes across one user's
// awards.
func (h *Handler) AdminGetUserAwardHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
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

	history, err := h.store.GetUserAwardHistory(r.Context(), userID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch award history")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"history": history,
		"total":   len(history),
	})
}
