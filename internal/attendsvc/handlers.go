// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package attendsvc

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

// eventLockedMessage is returned for any mutation against a locked event.
const eventLockedMessage = "Event attendance is locked and cannot be modified"

// Handler holds the attendance service's dependencies.
type Handler struct {
	store *Store
}

// NewHandler wires the attendance handlers.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createEventRequest struct {
	Title       string           `json:"title" validate:"required,min=1,max=255"`
	Description *string          `json:"description"`
	EventType   models.EventType `json:"event_type" validate:"required,oneof=tournament weekly_match meeting other"`
	EventDate   time.Time        `json:"event_date" validate:"required"`
	Location    *string          `json:"location" validate:"omitempty,max=255"`
}

type updateEventRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string           `json:"description"`
	EventType   *models.EventType `json:"event_type" validate:"omitempty,oneof=tournament weekly_match meeting other"`
	EventDate   *time.Time        `json:"event_date"`
	Location    *string           `json:"location" validate:"omitempty,max=255"`
}

type setAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type checkInRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	IsCheckedIn bool      `json:"is_checked_in"`
}

type revokeAvailabilityRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type lockEventRequest struct {
	IsLocked bool `json:"is_locked"`
}

// attendanceResponse is an attendance record with the username attached.
// The username falls back to the user ID when no join was available.
type attendanceResponse struct {
	models.AttendanceRecord
	Username string `json:"username"`
}

func newAttendanceResponse(rec *models.AttendanceRecord) attendanceResponse {
	return attendanceResponse{AttendanceRecord: *rec, Username: rec.UserID.String()}
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

/// eventIDParam parses the :event_id path segment, writing the error itself.
func eventIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "event_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid event ID")
		return uuid.Nil, false
	}
	return id, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter, writing the
// error itself. A missing parameter yields (nil, true).
func dateQuery(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Errorf(w, http.StatusBadRequest, "Invalid %s. Expected format: YYYY-MM-DD", name)
		return nil, false
	}
	return &d, true
}

// mutableEvent loads the event and rejects the request when it is missing
// or locked.
func (h *Handler) mutableEvent(w http.ResponseWriter, r *http.Request, eventID uuid.UUID) *models.Event {
	event, err := h.store.GetEvent(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return nil
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return nil
	}
	if event.IsLocked {
		httpx.Error(w, http.StatusForbidden, eventLockedMessage)
		return nil
	}
	return event
}

// CreateEvent makes a new event. Admin only.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeValid(w, r, &req) {
		return
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	event, err := h.store.CreateEvent(r.Context(), CreateEventParams{
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		EventDate:   req.EventDate,
		Location:    req.Location,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("event creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Event created successfully",
		"event":   event,
	})
}

// GetEvent returns a single event.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	event, err := h.store.GetEvent(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}
	httpx.JSON(w, http.StatusOK, event)
}

// ListEvents returns a filtered, paginated event list.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20)

	filter := EventFilter{
		UpcomingOnly: r.URL.Query().Get("upcoming_only") == "true",
		Limit:        page.PerPage,
		Offset:       page.Offset(),
	}
	if raw := r.URL.Query().Get("event_type"); raw != "" {
		t := models.EventType(raw)
		if !t.Valid() {
			httpx.Errorf(w, http.StatusBadRequest, "Invalid event type: %s", raw)
			return
		}
		filter.EventType = &t
	}
	var ok bool
	if filter.FromDate, ok = dateQuery(w, r, "from_date"); !ok {
		return
	}
	if filter.ToDate, ok = dateQuery(w, r, "to_date"); !ok {
		return
	}

	events, total, err := h.store.ListEvents(r.Context(), filter)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"events":      events,
		"total":       total,
		"page":        page.Number,
		"per_page":    page.PerPage,
		"total_pages": page.TotalPages(total),
	})
}

// UpdateEvent patches event fields. Admin only.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	var req updateEventRequest
	if !decodeValid(w, r, &req) {
		return
	}

	event, err := h.store.UpdateEvent(r.Context(), eventID, UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		EventType:   req.EventType,
		EventDate:   req.EventDate,
		Location:    req.Location,
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update event")
		return
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Event updated successfully",
		"event":   event,
	})
}

// DeleteEvent removes an event and, by cascade, its attendance. Admin only.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	deleted, err := h.store.DeleteEvent(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}
	httpx.Message(w, http.StatusOK, "Event deleted successfully")
}

// LockEvent toggles the attendance lock. Admin only.
func (h *Handler) LockEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	var req lockEventRequest
	if !decodeValid(w, r, &req) {
		return
	}

	event, err := h.store.LockEvent(r.Context(), eventID, req.IsLocked)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update event lock status")
		return
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}

	message := "Event unlocked successfully"
	if req.IsLocked {
		message = "Event locked successfully"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": message,
		"event":   event,
	})
}

// GetEventAttendance returns the event with all its attendance records and
// headline stats.
func (h *Handler) GetEventAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	event, err := h.store.GetEvent(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}

	records, err := h.store.EventAttendance(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch attendance")
		return
	}
	available, checkedIn, err := h.store.AttendanceStats(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch attendance stats")
		return
	}
	if records == nil {
		records = []AttendanceWithUser{}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"event":      event,
		"attendance": records,
		"stats": map[string]int64{
			"total_available":  available,
			"total_checked_in": checkedIn,
		},
	})
}

// SetAvailability records the caller's availability for an unlocked event.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	var req setAvailabilityRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if h.mutableEvent(w, r, eventID) == nil {
		return
	}

	record, err := h.store.SetAvailability(r.Context(), eventID, id.UserID, req.IsAvailable)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("set availability failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to set availability")
		return
	}

	message := "Marked as unavailable"
	if req.IsAvailable {
		message = "Marked as available"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"attendance": newAttendanceResponse(record),
	})
}

// GetMyAttendance returns the caller's record; an absent record reads as
// unavailable.
func (h *Handler) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	event, err := h.store.GetEvent(r.Context(), eventID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if event == nil {
		httpx.Error(w, http.StatusNotFound, "Event not found")
		return
	}

	record, err := h.store.GetAttendanceRecord(r.Context(), eventID, id.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if record == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"event_id":      eventID,
			"user_id":       id.UserID,
			"is_available":  false,
			"is_checked_in": false,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, newAttendanceResponse(record))
}

// CheckInUser sets or clears a user's check-in. Admin only.
func (h *Handler) CheckInUser(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	admin, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	var req checkInRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if h.mutableEvent(w, r, eventID) == nil {
		return
	}

	record, err := h.store.CheckInUser(r.Context(), eventID, req.UserID, req.IsCheckedIn, admin.UserID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("check-in failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to update check-in status")
		return
	}
	if req.IsCheckedIn {
		metrics.CheckinsTotal.Inc()
	}

	message := "User check-in revoked"
	if req.IsCheckedIn {
		message = "User checked in successfully"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    message,
		"attendance": newAttendanceResponse(record),
	})
}

// RevokeAvailability clears a user's availability and check-in. Admin only.
func (h *Handler) RevokeAvailability(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	var req revokeAvailabilityRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if h.mutableEvent(w, r, eventID) == nil {
		return
	}

	record, err := h.store.RevokeAvailability(r.Context(), eventID, req.UserID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("revoke availability failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to revoke availability")
		return
	}
	if record == nil {
		httpx.Error(w, http.StatusNotFound, "No attendance record found for this user")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "Availability revoked successfully",
		"attendance": newAttendanceResponse(record),
	})
}

// GetAttendanceMatrix returns the full dashboard. Admin only.
func (h *Handler) GetAttendanceMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.store.AllEventsForMatrix(ctx)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	users, err := h.store.AllUsers(ctx)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	records, err := h.store.AllAttendanceRecords(ctx)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch attendance records")
		return
	}
	typeStats, err := h.store.EventTypeStats(ctx)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch event type stats")
		return
	}

	httpx.JSON(w, http.StatusOK, buildMatrix(events, users, records, typeStats))
}
