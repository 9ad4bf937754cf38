// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a club event.
type EventType string

const (
	EventTournament  EventType = "tournament"
	EventWeeklyMatch EventType = "weekly_match"
	EventMeeting     EventType = "meeting"
	EventOther       EventType = "other"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventTournament, EventWeeklyMatch, EventMeeting, EventOther:
		return true
	}
	return false
}

// Event is a club event attendance is tracked against.
// While IsLocked, all attendance mutations are rejected.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	EventType   EventType `json:"event_type"`
	EventDate   time.Time `json:"event_date"`
	Location    *string   `json:"location,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	IsLocked    bool      `json:"is_locked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttendanceRecord tracks one user's availability and check-in for one event.
// Invariant: IsCheckedIn implies CheckedInBy and CheckedInAt are set.
type AttendanceRecord struct {
	ID                uuid.UUID  `json:"id"`
	EventID           uuid.UUID  `json:"event_id"`
	UserID            uuid.UUID  `json:"user_id"`
	IsAvailable       bool       `json:"is_available"`
	IsCheckedIn       bool       `json:"is_checked_in"`
	CheckedInBy       *uuid.UUID `json:"checked_in_by,omitempty"`
	CheckedInAt       *time.Time `json:"checked_in_at,omitempty"`
	AvailabilitySetAt time.Time  `json:"availability_set_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
